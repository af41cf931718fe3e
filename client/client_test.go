package client_test

import (
	"context"
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mickamy/microbat/catalog"
	"github.com/mickamy/microbat/client"
	"github.com/mickamy/microbat/server"
	"github.com/mickamy/microbat/value"
)

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()

	cat := catalog.New()
	if err := cat.CreateTable("users", value.NewTableSchema(
		value.Column{Name: "id", DataType: value.Integer},
		value.Column{Name: "name", DataType: value.Varchar},
	)); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := cat.Insert("users", value.NewInteger(1), value.NewVarchar("juho")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	srv := server.New(cat, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, lis)
		close(done)
	}()

	return lis.Addr().String(), func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not shut down in time")
		}
	}
}

func TestClientQueryRoundTrip(t *testing.T) {
	t.Parallel()

	addr, stop := startTestServer(t)
	defer stop()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Query("select id, name from users")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Columns) != 2 || len(resp.Rows) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClientQueryError(t *testing.T) {
	t.Parallel()

	addr, stop := startTestServer(t)
	defer stop()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Query("select id from bogus")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.ErrorText == "" {
		t.Fatal("expected a non-empty ErrorText")
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	columns := []value.Column{{Name: "id", DataType: value.Integer}, {Name: "name", DataType: value.Varchar}}
	rows := [][]value.Value{{value.NewInteger(1), value.NewVarchar("juho")}}
	out := client.RenderTable(columns, rows)
	if !strings.Contains(out, "id") || !strings.Contains(out, "juho") {
		t.Errorf("RenderTable output missing expected content: %q", out)
	}
}
