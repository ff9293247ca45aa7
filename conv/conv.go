// Package conv converts hex-encoded data found in source code, shell
// commands, and exploit write-ups into raw bytes.
package conv

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// HexArrayToBytes converts an array of hex-encoded bytes into a []byte.
// It ignores C comments, which allows the function to parse blobs of
// data mixed with comments.
//
// The following formats are understood, and may be mixed:
//
//	"\x31\xc0\x40"
//	{0x31, 0xc0, 0x40}
//	31 c0 40
func HexArrayToBytes(source io.Reader) ([]byte, error) {
	return io.ReadAll(NewHexArrayReader(source))
}

// NewHexArrayReader returns an io.Reader that converts hex-encoded
// data read from r into raw bytes. Refer to HexArrayToBytes for
// details regarding the supported formats.
func NewHexArrayReader(r io.Reader) io.Reader {
	return &hexArrayReader{
		bufferedSrc: bufio.NewReader(r),
	}
}

type hexArrayReader struct {
	bufferedSrc *bufio.Reader
	pending     []byte
	done        bool
}

func (o *hexArrayReader) Read(p []byte) (int, error) {
	for len(o.pending) == 0 {
		if o.done {
			return 0, io.EOF
		}

		err := o.next()
		switch {
		case errors.Is(err, io.EOF):
			o.done = true
		case err != nil:
			return 0, err
		}
	}

	n := copy(p, o.pending)
	o.pending = o.pending[n:]

	return n, nil
}

// next consumes the next token from the source. Hex tokens are
// decoded into o.pending. Comments, punctuation, and identifiers
// that are not hex (e.g., "unsigned", "char", "byte") are skipped.
func (o *hexArrayReader) next() error {
	b, err := o.bufferedSrc.ReadByte()
	if err != nil {
		return err
	}

	switch {
	case b == '/':
		return skipComment(o.bufferedSrc)
	case b == '\\':
		x, err := o.bufferedSrc.ReadByte()
		if err != nil {
			return err
		}

		if x != 'x' && x != 'X' {
			return nil
		}

		digits, err := o.readWord(nil)
		if err != nil {
			return err
		}

		return o.decode(digits, true)
	case isWordChar(b):
		word, err := o.readWord([]byte{b})
		if err != nil {
			return err
		}

		if len(word) > 1 && word[0] == '0' && (word[1] == 'x' || word[1] == 'X') {
			return o.decode(word[2:], true)
		}

		for _, c := range word {
			if !isHexChar(c) {
				return nil
			}
		}

		return o.decode(word, false)
	default:
		return nil
	}
}

// readWord reads the rest of a run of letters, digits, and underscores.
func (o *hexArrayReader) readWord(word []byte) ([]byte, error) {
	for {
		b, err := o.bufferedSrc.ReadByte()
		if errors.Is(err, io.EOF) {
			return word, nil
		}
		if err != nil {
			return nil, err
		}

		if !isWordChar(b) {
			err = o.bufferedSrc.UnreadByte()
			if err != nil {
				return nil, fmt.Errorf("failed to unread byte - %w", err)
			}
			return word, nil
		}

		word = append(word, b)
	}
}

// decode hex-decodes digits into o.pending. Digits following a "0x"
// or "\x" prefix may have an odd length (e.g., "0x1").
func (o *hexArrayReader) decode(digits []byte, prefixed bool) error {
	if len(digits) == 0 {
		return errors.New("hex prefix is not followed by any hex characters")
	}

	if len(digits)%2 != 0 {
		if !prefixed {
			return fmt.Errorf("hex string %q has an odd number of characters", digits)
		}

		digits = append([]byte{'0'}, digits...)
	}

	decoded := make([]byte, hex.DecodedLen(len(digits)))
	_, err := hex.Decode(decoded, digits)
	if err != nil {
		return fmt.Errorf("failed to hex-decode %q - %w", digits, err)
	}

	o.pending = append(o.pending, decoded...)

	return nil
}

// skipComment discards the remainder of a C syntax comment. It assumes
// that the first comment character has already been read.
func skipComment(bufferedSrc *bufio.Reader) error {
	secondChar, err := bufferedSrc.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read second start of comment char - %w", err)
	}

	switch secondChar {
	case '/':
		_, err := bufferedSrc.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to find end of line comment - %w", err)
		}

		return nil
	case '*':
		for {
			_, err := bufferedSrc.ReadBytes('*')
			if err != nil {
				return fmt.Errorf("failed to find corresponding '*/' end of comment - %w", err)
			}

			nextChar, err := bufferedSrc.ReadByte()
			if err != nil {
				return fmt.Errorf("failed to find corresponding '*/' end of comment - %w", err)
			}

			if nextChar == '/' {
				return nil
			}

			err = bufferedSrc.UnreadByte()
			if err != nil {
				return fmt.Errorf("failed to unread byte - %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown second start of comment char '%c'", secondChar)
	}
}

func isHexChar(b byte) bool {
	return (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') || (b >= '0' && b <= '9')
}

func isWordChar(b byte) bool {
	return isHexChar(b) || (b >= 'g' && b <= 'z') || (b >= 'G' && b <= 'Z') || b == '_'
}
