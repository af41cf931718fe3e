// Package client implements microbat's wire client: connect, handshake,
// send one query at a time, and read back the response sequence up to its
// terminating Ready frame.
package client

import (
	"fmt"
	"net"

	"github.com/mickamy/microbat/protocol"
	"github.com/mickamy/microbat/value"
)

// Client is a single connection to a microbat server.
type Client struct {
	conn net.Conn
}

// Dial connects to addr and completes the handshake.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	c := &Client{conn: conn}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake() error {
	if err := protocol.Handshake().WriteTo(c.conn); err != nil {
		return fmt.Errorf("client: send handshake: %w", err)
	}
	resp, err := protocol.ReadServerMessage(c.conn)
	if err != nil {
		return fmt.Errorf("client: read handshake response: %w", err)
	}
	if resp.Kind != protocol.ServerHandshake {
		return fmt.Errorf("client: expected Handshake, got %s", resp.Kind)
	}
	resp, err = protocol.ReadServerMessage(c.conn)
	if err != nil {
		return fmt.Errorf("client: read ready: %w", err)
	}
	if resp.Kind != protocol.ServerReady {
		return fmt.Errorf("client: expected Ready, got %s", resp.Kind)
	}
	return nil
}

// Close sends Disconnect and closes the underlying connection.
func (c *Client) Close() error {
	defer c.conn.Close()
	return protocol.Disconnect().WriteTo(c.conn)
}

// Response is everything the server sent back for one query, short of the
// Ready frame that closes the sequence.
type Response struct {
	Columns      []value.Column
	Rows         [][]value.Value
	RowsAffected *uint32
	ErrorText    string
}

// Query sends sql and collects the full response sequence.
func (c *Client) Query(sql string) (Response, error) {
	if err := protocol.Query(sql).WriteTo(c.conn); err != nil {
		return Response{}, fmt.Errorf("client: send query: %w", err)
	}

	var resp Response
	for {
		msg, err := protocol.ReadServerMessage(c.conn)
		if err != nil {
			return Response{}, fmt.Errorf("client: read response: %w", err)
		}
		switch msg.Kind {
		case protocol.ServerReady:
			return resp, nil
		case protocol.ServerError:
			resp.ErrorText = msg.ErrorText
		case protocol.ServerDataDescription:
			resp.Columns = msg.Columns
		case protocol.ServerDataRow:
			resp.Rows = append(resp.Rows, msg.RowValues)
		case protocol.ServerInsertResult:
			rowsAffected := msg.RowsAffected
			resp.RowsAffected = &rowsAffected
		default:
			return Response{}, fmt.Errorf("client: unexpected message %s", msg.Kind)
		}
	}
}
