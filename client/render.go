package client

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mickamy/microbat/value"
)

// RenderTable renders a query's columns and rows as a bordered ASCII
// table, the way the original client's terminal output looked.
func RenderTable(columns []value.Column, rows [][]value.Value) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Name
	}

	t := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers(headers...)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		t.Row(cells...)
	}
	return t.Render()
}
