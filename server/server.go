// Package server implements microbat's connection bootstrap: one
// goroutine per accepted TCP connection, each running the handshake then
// looping over client messages until a disconnect or an unrecoverable
// I/O error.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mickamy/microbat/catalog"
	"github.com/mickamy/microbat/protocol"
	"github.com/mickamy/microbat/sql"
	"github.com/mickamy/microbat/stats"
)

const (
	hotTableThreshold = 100
	hotTableWindow    = time.Second
	hotTableCooldown  = 10 * time.Second
)

// Server binds a Catalog to the network: every connection executes
// statements against the same Catalog instance, which serializes
// concurrent access internally.
type Server struct {
	catalog *catalog.Catalog
	tracker *stats.AccessTracker
	logger  *log.Logger
}

// New creates a Server backed by cat, logging through logger.
func New(cat *catalog.Catalog, logger *log.Logger) *Server {
	return &Server{
		catalog: cat,
		tracker: stats.NewAccessTracker(hotTableThreshold, hotTableWindow, hotTableCooldown),
		logger:  logger,
	}
}

// Serve accepts connections on lis until ctx is canceled, handling each on
// its own goroutine. It returns once every connection goroutine has
// returned.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return lis.Close()
	})

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		connID := uuid.New()
		g.Go(func() error {
			s.handleConn(ctx, conn, connID)
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn, id uuid.UUID) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Printf("connection %s: accepted from %s", id, conn.RemoteAddr())

	msg, err := protocol.ReadClientMessage(conn)
	if err != nil {
		s.logger.Printf("connection %s: handshake read: %v", id, err)
		return
	}
	if msg.Kind != protocol.ClientHandshake {
		s.logger.Printf("connection %s: expected handshake, got %s", id, msg.Kind)
		return
	}
	if err := protocol.ServerHandshakeMessage().WriteTo(conn); err != nil {
		s.logger.Printf("connection %s: handshake write: %v", id, err)
		return
	}
	if err := protocol.ServerReadyMessage().WriteTo(conn); err != nil {
		s.logger.Printf("connection %s: ready write: %v", id, err)
		return
	}

	for {
		msg, err := protocol.ReadClientMessage(conn)
		if err != nil {
			if errors.Is(err, protocol.ErrUnexpectedHangup) || errors.Is(err, io.EOF) {
				s.logger.Printf("connection %s: client hung up", id)
			} else {
				s.logger.Printf("connection %s: read error: %v", id, err)
			}
			return
		}

		switch msg.Kind {
		case protocol.ClientDisconnect:
			s.logger.Printf("connection %s: disconnected", id)
			return
		case protocol.ClientQuery:
			if !s.handleQuery(conn, id, msg.Query) {
				return
			}
		default:
			s.logger.Printf("connection %s: unexpected message %s", id, msg.Kind)
			return
		}
	}
}

// handleQuery runs one query to completion, always closing the response
// sequence with exactly one Ready frame. It returns false when a write to
// conn failed, signaling the caller to stop serving this connection.
func (s *Server) handleQuery(conn net.Conn, id uuid.UUID, query string) bool {
	ok := true
	write := func(m protocol.ServerMessage) {
		if !ok {
			return
		}
		if err := m.WriteTo(conn); err != nil {
			s.logger.Printf("connection %s: write error: %v", id, err)
			ok = false
		}
	}
	defer write(protocol.ServerReadyMessage())

	clause, err := sql.Parse(query)
	if err != nil {
		write(protocol.ServerErrorMessage(err.Error()))
		return ok
	}

	for _, table := range clause.Tables {
		if r := s.tracker.Record(table, time.Now()); r.Alert != nil {
			s.logger.Printf("connection %s: table %q touched %d times in %s", id, r.Alert.Table, r.Alert.Count, hotTableWindow)
		}
	}

	result, err := s.catalog.Execute(clause)
	if err != nil {
		write(protocol.ServerErrorMessage(err.Error()))
		return ok
	}

	write(protocol.ServerDataDescriptionMessage(result.Columns))
	for _, row := range result.Rows {
		write(protocol.ServerDataRowMessage(row.Values))
	}
	return ok
}
