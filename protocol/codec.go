// Package protocol implements the local control-protocol ASCII envelope
// (§4.12): a 5-character command key, a hex payload length, a `#`
// delimiter, comma-separated arguments, and a newline terminator.
// Grounded on `original_source/core/protocol/dte_handler.hpp` and
// `base_types.hpp` (KEY_LENGTH = 5).
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyLength is the fixed width of a command key (e.g. "PARMR", "STATR").
const KeyLength = 5

// Error is the wire error taxonomy returned alongside a response.
type Error int

const (
	ErrOK Error = iota
	ErrIncorrectCommand
	ErrNoLengthDelimiter
	ErrNoDataDelimiter
	ErrDataLengthMismatch
	ErrIncorrectData
)

func (e Error) String() string {
	switch e {
	case ErrOK:
		return "OK"
	case ErrIncorrectCommand:
		return "INCORRECT_COMMAND"
	case ErrNoLengthDelimiter:
		return "NO_LENGTH_DELIMITER"
	case ErrNoDataDelimiter:
		return "NO_DATA_DELIMITER"
	case ErrDataLengthMismatch:
		return "DATA_LENGTH_MISMATCH"
	case ErrIncorrectData:
		return "INCORRECT_DATA"
	default:
		return "UNKNOWN"
	}
}

// Frame is one decoded command envelope.
type Frame struct {
	Key  string
	Args []string
}

// Encode renders key and args (joined with commas) as a wire frame:
// KEY + 3 hex digits of payload length + '#' + payload + '\n'.
func Encode(key string, args ...string) string {
	payload := strings.Join(args, ",")
	return fmt.Sprintf("%-5s%03X#%s\n", key, len(payload), payload)
}

// EncodeError renders a bare error response for a key that never reached a
// well-formed payload.
func EncodeError(key string, err Error) string {
	return fmt.Sprintf("%-5s%03X#%d\n", key, 1, int(err))
}

// Decode parses a single line (without its trailing newline) into a Frame.
func Decode(line string) (Frame, Error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < KeyLength {
		return Frame{}, ErrIncorrectCommand
	}
	key := strings.TrimSpace(line[:KeyLength])
	rest := line[KeyLength:]

	hashIdx := strings.IndexByte(rest, '#')
	if hashIdx < 0 {
		return Frame{}, ErrNoDataDelimiter
	}
	lenField := rest[:hashIdx]
	if lenField == "" {
		return Frame{}, ErrNoLengthDelimiter
	}
	declaredLen, err := strconv.ParseInt(lenField, 16, 32)
	if err != nil {
		return Frame{}, ErrNoLengthDelimiter
	}

	payload := rest[hashIdx+1:]
	if int(declaredLen) != len(payload) {
		return Frame{}, ErrDataLengthMismatch
	}

	var args []string
	if payload != "" {
		args = strings.Split(payload, ",")
	}
	return Frame{Key: key, Args: args}, ErrOK
}
