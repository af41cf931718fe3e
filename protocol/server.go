package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/mickamy/microbat/value"
)

// Server message type bytes. These share the wire's single byte-value
// space with client message types (client.go).
const (
	ServerTypeHandshake       byte = 'b'
	ServerTypeReady           byte = 'x'
	ServerTypeError           byte = 'e'
	ServerTypeDataDescription byte = 'r'
	ServerTypeDataRow         byte = 'd'
	ServerTypeInsertResult    byte = 'i'
)

const (
	serverHandshakePayload = "hello client"
	serverReadyPayload     = "shoot"
)

// ServerMessageKind discriminates the ServerMessage union.
type ServerMessageKind int

const (
	ServerHandshake ServerMessageKind = iota
	ServerReady
	ServerError
	ServerDataDescription
	ServerDataRow
	ServerInsertResult
)

func (k ServerMessageKind) String() string {
	switch k {
	case ServerHandshake:
		return "Handshake"
	case ServerReady:
		return "Ready"
	case ServerError:
		return "Error"
	case ServerDataDescription:
		return "DataDescription"
	case ServerDataRow:
		return "DataRow"
	case ServerInsertResult:
		return "InsertResult"
	default:
		return fmt.Sprintf("UnknownServerMessageKind(%d)", int(k))
	}
}

// ServerMessage is the sum type of messages the server may send.
type ServerMessage struct {
	Kind         ServerMessageKind
	ErrorText    string         // ServerError
	Columns      []value.Column // ServerDataDescription
	RowValues    []value.Value  // ServerDataRow
	RowsAffected uint32         // ServerInsertResult
}

// ServerHandshakeMessage returns the server handshake message.
func ServerHandshakeMessage() ServerMessage {
	return ServerMessage{Kind: ServerHandshake}
}

// ServerReadyMessage returns the Ready barrier message.
func ServerReadyMessage() ServerMessage {
	return ServerMessage{Kind: ServerReady}
}

// ServerErrorMessage returns an Error message carrying text.
func ServerErrorMessage(text string) ServerMessage {
	return ServerMessage{Kind: ServerError, ErrorText: text}
}

// ServerDataDescriptionMessage returns a DataDescription message listing
// columns.
func ServerDataDescriptionMessage(columns []value.Column) ServerMessage {
	return ServerMessage{Kind: ServerDataDescription, Columns: columns}
}

// ServerDataRowMessage returns a DataRow message carrying values.
func ServerDataRowMessage(values []value.Value) ServerMessage {
	return ServerMessage{Kind: ServerDataRow, RowValues: values}
}

// ServerInsertResultMessage returns an InsertResult message reporting
// rowsAffected.
func ServerInsertResultMessage(rowsAffected uint32) ServerMessage {
	return ServerMessage{Kind: ServerInsertResult, RowsAffected: rowsAffected}
}

// WriteTo encodes and writes m to w as a single frame.
func (m ServerMessage) WriteTo(w io.Writer) error {
	switch m.Kind {
	case ServerHandshake:
		return writeFrame(w, ServerTypeHandshake, []byte(serverHandshakePayload))
	case ServerReady:
		return writeFrame(w, ServerTypeReady, []byte(serverReadyPayload))
	case ServerError:
		return writeFrame(w, ServerTypeError, []byte(m.ErrorText))
	case ServerDataDescription:
		var payload []byte
		for _, c := range m.Columns {
			payload = appendLengthPrefixed(payload, []byte(c.Name))
		}
		return writeFrame(w, ServerTypeDataDescription, payload)
	case ServerDataRow:
		var payload []byte
		for _, v := range m.RowValues {
			payload = encodeValue(payload, v)
		}
		return writeFrame(w, ServerTypeDataRow, payload)
	case ServerInsertResult:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], m.RowsAffected)
		return writeFrame(w, ServerTypeInsertResult, b[:])
	default:
		return fmt.Errorf("protocol: can't encode server message kind %v", m.Kind)
	}
}

// ReadServerMessage reads one frame from r and decodes it as a
// ServerMessage.
func ReadServerMessage(r io.Reader) (ServerMessage, error) {
	frame, err := readFrame(r)
	if err != nil {
		return ServerMessage{}, err
	}
	return decodeServerMessage(frame.Type, frame.Payload)
}

// decodeServerMessage reconstructs columns from a DataDescription payload
// as type Integer regardless of the table's actual column types. The wire
// format (spec.md §4.1, §9) does not currently convey column types on this
// message; this is a known, explicitly flagged limitation, not a bug.
func decodeServerMessage(typeByte byte, payload []byte) (ServerMessage, error) {
	switch typeByte {
	case ServerTypeHandshake:
		if string(payload) != serverHandshakePayload {
			return ServerMessage{}, fmt.Errorf("protocol: malformed handshake payload %q", payload)
		}
		return ServerHandshakeMessage(), nil
	case ServerTypeReady:
		if string(payload) != serverReadyPayload {
			return ServerMessage{}, fmt.Errorf("protocol: malformed ready payload %q", payload)
		}
		return ServerReadyMessage(), nil
	case ServerTypeError:
		if !utf8.Valid(payload) {
			return ServerMessage{}, fmt.Errorf("protocol: error payload is not valid UTF-8")
		}
		return ServerErrorMessage(string(payload)), nil
	case ServerTypeDataDescription:
		var columns []value.Column
		rest := payload
		for len(rest) > 0 {
			var name []byte
			var err error
			name, rest, err = readLengthPrefixed(rest)
			if err != nil {
				return ServerMessage{}, err
			}
			if !utf8.Valid(name) {
				return ServerMessage{}, fmt.Errorf("protocol: column name is not valid UTF-8")
			}
			columns = append(columns, value.Column{Name: string(name), DataType: value.Integer})
		}
		return ServerDataDescriptionMessage(columns), nil
	case ServerTypeDataRow:
		var values []value.Value
		rest := payload
		for len(rest) > 0 {
			var v value.Value
			var err error
			v, rest, err = decodeValue(rest)
			if err != nil {
				return ServerMessage{}, err
			}
			values = append(values, v)
		}
		return ServerDataRowMessage(values), nil
	case ServerTypeInsertResult:
		if len(payload) != 4 {
			return ServerMessage{}, fmt.Errorf("protocol: insert result payload must be 4 bytes, got %d", len(payload))
		}
		return ServerInsertResultMessage(binary.LittleEndian.Uint32(payload)), nil
	default:
		return ServerMessage{}, fmt.Errorf("protocol: unknown server message type %q", typeByte)
	}
}
