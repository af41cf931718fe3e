// Command microbat is the interactive client REPL.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mickamy/microbat/client"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("microbat", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "microbat — a tiny SQL database's command-line client\n\nUsage:\n  microbat [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	addr := fs.String("addr", "127.0.0.1:5433", "address of the microbatd server to connect to")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("microbat %s\n", version)
		return
	}

	if err := repl(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "microbat: %v\n", err)
		os.Exit(1)
	}
}

func repl(addr string) error {
	c, err := client.Dial(addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interrupted := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(interrupted)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Print("microbat> ")
	for {
		select {
		case <-interrupted:
			fmt.Println()
			fmt.Println("Disconnected")
			return c.Close()
		case line, ok := <-lines:
			if !ok {
				fmt.Println("Disconnected")
				return c.Close()
			}
			runQuery(c, line)
			fmt.Print("microbat> ")
		}
	}
}

func runQuery(c *client.Client, query string) {
	if query == "" {
		return
	}
	resp, err := c.Query(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if resp.ErrorText != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", resp.ErrorText)
		return
	}
	if resp.RowsAffected != nil {
		fmt.Printf("OK, %d row(s) affected\n", *resp.RowsAffected)
		return
	}
	fmt.Println(client.RenderTable(resp.Columns, resp.Rows))
}
