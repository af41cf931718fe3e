package server_test

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/mickamy/microbat/catalog"
	"github.com/mickamy/microbat/protocol"
	"github.com/mickamy/microbat/server"
	"github.com/mickamy/microbat/value"
)

func startTestServer(t *testing.T) (net.Addr, func()) {
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

	return lis.Addr(), func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not shut down in time")
		}
	}
}

func TestHandshakeQueryDisconnect(t *testing.T) {
	t.Parallel()

	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := protocol.Handshake().WriteTo(conn); err != nil {
		t.Fatalf("WriteTo(handshake): %v", err)
	}
	resp, err := protocol.ReadServerMessage(conn)
	if err != nil {
		t.Fatalf("ReadServerMessage: %v", err)
	}
	if resp.Kind != protocol.ServerHandshake {
		t.Fatalf("got %v, want ServerHandshake", resp.Kind)
	}
	resp, err = protocol.ReadServerMessage(conn)
	if err != nil {
		t.Fatalf("ReadServerMessage: %v", err)
	}
	if resp.Kind != protocol.ServerReady {
		t.Fatalf("got %v, want ServerReady", resp.Kind)
	}

	if err := protocol.Query("select id, name from users").WriteTo(conn); err != nil {
		t.Fatalf("WriteTo(query): %v", err)
	}
	resp, err = protocol.ReadServerMessage(conn)
	if err != nil || resp.Kind != protocol.ServerDataDescription || len(resp.Columns) != 2 {
		t.Fatalf("got %+v, %v; want DataDescription with 2 columns", resp, err)
	}
	resp, err = protocol.ReadServerMessage(conn)
	if err != nil || resp.Kind != protocol.ServerDataRow {
		t.Fatalf("got %+v, %v; want DataRow", resp, err)
	}
	resp, err = protocol.ReadServerMessage(conn)
	if err != nil || resp.Kind != protocol.ServerReady {
		t.Fatalf("got %+v, %v; want Ready", resp, err)
	}

	if err := protocol.Disconnect().WriteTo(conn); err != nil {
		t.Fatalf("WriteTo(disconnect): %v", err)
	}
	// The server closes the connection after a disconnect message; the
	// next read should observe EOF rather than another frame.
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected EOF after disconnect")
	}
}

func TestQueryErrorStillEndsWithReady(t *testing.T) {
	t.Parallel()

	addr, stop := startTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := protocol.Handshake().WriteTo(conn); err != nil {
		t.Fatalf("WriteTo(handshake): %v", err)
	}
	if _, err := protocol.ReadServerMessage(conn); err != nil {
		t.Fatalf("ReadServerMessage: %v", err)
	}
	if _, err := protocol.ReadServerMessage(conn); err != nil {
		t.Fatalf("ReadServerMessage: %v", err)
	}

	if err := protocol.Query("select id from bogus").WriteTo(conn); err != nil {
		t.Fatalf("WriteTo(query): %v", err)
	}
	resp, err := protocol.ReadServerMessage(conn)
	if err != nil || resp.Kind != protocol.ServerError {
		t.Fatalf("got %+v, %v; want ServerError", resp, err)
	}
	resp, err = protocol.ReadServerMessage(conn)
	if err != nil || resp.Kind != protocol.ServerReady {
		t.Fatalf("got %+v, %v; want Ready", resp, err)
	}
}
