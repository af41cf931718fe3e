// Package protocol implements microbat's wire format: a length-prefixed
// binary frame carrying typed client and server messages between the
// interactive client and the server.
//
// Frame layout: [type:1][length:4 little-endian u32][payload:length bytes].
// Client and server messages share the same byte-layout rules but have
// separate type-byte tables that reuse byte values ('d' is both a client
// Disconnect and a server DataRow; see client.go and server.go); callers
// must know which role they are decoding for.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedHangup is returned when a 0x00 type byte is read where a
// frame was expected — the peer closed the connection mid-stream.
var ErrUnexpectedHangup = errors.New("protocol: unexpected hangup")

// rawFrame is a decoded but not yet interpreted frame.
type rawFrame struct {
	Type    byte
	Payload []byte
}

// readFrame reads one frame's type byte, length and payload off r. It
// enforces that exactly length bytes follow — io.ReadFull already does
// that for us, surfacing a truncation as io.ErrUnexpectedEOF.
func readFrame(r io.Reader) (rawFrame, error) {
	var typeByte [1]byte
	if _, err := io.ReadFull(r, typeByte[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return rawFrame{}, ErrUnexpectedHangup
		}
		return rawFrame{}, fmt.Errorf("protocol: read type byte: %w", err)
	}
	if typeByte[0] == 0 {
		return rawFrame{}, ErrUnexpectedHangup
	}

	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return rawFrame{}, fmt.Errorf("protocol: read length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lengthBytes[:])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return rawFrame{}, fmt.Errorf("protocol: read payload: %w", err)
		}
	}

	return rawFrame{Type: typeByte[0], Payload: payload}, nil
}

// writeFrame writes one [type][length][payload] frame to w in a single
// Write call, so a sender never leaves a frame half-written on the wire.
func writeFrame(w io.Writer, typeByte byte, payload []byte) error {
	buf := make([]byte, 0, 5+len(payload))
	buf = append(buf, typeByte)
	var lengthBytes [4]byte
	binary.LittleEndian.PutUint32(lengthBytes[:], uint32(len(payload)))
	buf = append(buf, lengthBytes[:]...)
	buf = append(buf, payload...)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// appendLengthPrefixed appends a [length:4 LE][bytes] encoding of s to buf
// and returns the extended slice.
func appendLengthPrefixed(buf []byte, s []byte) []byte {
	var lengthBytes [4]byte
	binary.LittleEndian.PutUint32(lengthBytes[:], uint32(len(s)))
	buf = append(buf, lengthBytes[:]...)
	buf = append(buf, s...)
	return buf
}

// readLengthPrefixed reads a [length:4 LE][bytes] value from the front of
// buf and returns the value and the remaining unread bytes.
func readLengthPrefixed(buf []byte) (value []byte, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("protocol: truncated length prefix")
	}
	length := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < length {
		return nil, nil, fmt.Errorf("protocol: truncated value: want %d bytes, have %d", length, len(buf))
	}
	return buf[:length], buf[length:], nil
}
