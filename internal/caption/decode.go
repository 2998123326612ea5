package caption

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// EncodingError reports non-UTF-8 input with the offset of the first
// offending byte.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid UTF-8 byte sequence at offset %d", e.Offset)
}

// decodeText validates UTF-8, optionally falling back to latin-1, and
// strips a leading BOM.
func decodeText(data []byte, fallbackLatin1 bool) (string, error) {
	if !utf8.Valid(data) {
		if !fallbackLatin1 {
			return "", &EncodingError{Offset: invalidOffset(data)}
		}
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("latin-1 fallback decode failed: %w", err)
		}
		data = decoded
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// readLines drains the reader, applies encoding handling and splits
// into lines. Readers operate on the resulting slice so that line
// numbers in warnings stay accurate.
func readLines(r io.Reader, opts ReadOptions) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	text, err := decodeText(data, opts.FallbackLatin1)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n"), nil
}
