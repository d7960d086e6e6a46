// Package hexdump converts between hex text typed by a user and raw bytes,
// and renders received datagrams as a classic 16-column hexdump.
package hexdump

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOddLength   = errors.New("odd number of hex digits")
	ErrInvalidChar = errors.New("invalid hex character")
)

// InvalidByteError reports the first character that is neither a hex digit
// nor whitespace.
type InvalidByteError struct {
	Char   rune
	Offset int
}

func (e *InvalidByteError) Error() string {
	return fmt.Sprintf("invalid hex character %q at offset %d", e.Char, e.Offset)
}

func (e *InvalidByteError) Unwrap() error {
	return ErrInvalidChar
}

const hexDigits = "0123456789ABCDEF"

func nibble(c rune) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return byte(c - '0'), true
	case c >= 'a' && c <= 'f':
		return byte(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return byte(c-'A') + 10, true
	}
	return 0, false
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Decode parses pairs of hex digits, most significant nibble first.
// Whitespace may appear anywhere, including between the two digits of a
// pair. On error no bytes are returned.
func Decode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/2)
	hi := -1
	for i, c := range s {
		if isSpace(c) {
			continue
		}
		v, ok := nibble(c)
		if !ok {
			return nil, &InvalidByteError{Char: c, Offset: i}
		}
		if hi < 0 {
			hi = int(v)
			continue
		}
		out = append(out, byte(hi)<<4|v)
		hi = -1
	}
	if hi >= 0 {
		return nil, ErrOddLength
	}
	return out, nil
}

// Encode renders b as contiguous upper-case hex pairs.
func Encode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

// Printable replaces every byte outside the printable ASCII range with '.'.
func Printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 32 && c <= 126 {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// Dump renders b as 16 bytes per line:
//
//	00000000  48 65 6c 6c 6f 20 77 6f  72 6c 64 0a              | Hello world.     |
func Dump(b []byte) string {
	var sb strings.Builder
	for i := 0; i < len(b); i += 16 {
		fmt.Fprintf(&sb, "%08x  ", i)
		for j := 0; j < 16; j++ {
			if i+j < len(b) {
				fmt.Fprintf(&sb, "%02x ", b[i+j])
			} else {
				sb.WriteString("   ")
			}
			if j == 7 {
				sb.WriteByte(' ')
			}
		}

		end := min(i+16, len(b))
		sb.WriteString(" | ")
		sb.WriteString(Printable(b[i:end]))
		sb.WriteString(strings.Repeat(" ", 16-(end-i)))
		sb.WriteString(" |\n")
	}
	return sb.String()
}
