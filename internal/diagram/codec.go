package diagram

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const (
	zlibHeaderLen  = 2
	zlibTrailerLen = 4
)

// Encode compresses a diagram document and encodes it into the URL-safe token
// understood by PlantUML servers.
//
// The text is zlib-compressed at the default level, the 2-byte stream header
// and 4-byte Adler-32 trailer are dropped, and the raw deflate payload is
// re-encoded with EncodeBytes.
func Encode(text string) (string, error) {
	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := w.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("failed to compress diagram: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to flush compressor: %w", err)
	}

	compressed := buf.Bytes()
	if len(compressed) < zlibHeaderLen+zlibTrailerLen {
		return "", fmt.Errorf("compressed stream too short: %d bytes", len(compressed))
	}

	return EncodeBytes(compressed[zlibHeaderLen : len(compressed)-zlibTrailerLen]), nil
}

// EncodeBytes maps raw bytes onto the 64-symbol alphabet 0-9A-Za-z-_,
// three bytes to four symbols. A short final group is padded with zero bytes
// and still produces four symbols.
func EncodeBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow((len(data) + 2) / 3 * 4)

	for i := 0; i < len(data); i += 3 {
		var b1, b2, b3 byte
		b1 = data[i]
		if i+1 < len(data) {
			b2 = data[i+1]
		}
		if i+2 < len(data) {
			b3 = data[i+2]
		}
		append3Bytes(&sb, b1, b2, b3)
	}

	return sb.String()
}

func append3Bytes(sb *strings.Builder, b1, b2, b3 byte) {
	c1 := b1 >> 2
	c2 := ((b1 & 0x3) << 4) | (b2 >> 4)
	c3 := ((b2 & 0xF) << 2) | (b3 >> 6)
	c4 := b3 & 0x3F

	sb.WriteByte(encode6Bit(c1))
	sb.WriteByte(encode6Bit(c2))
	sb.WriteByte(encode6Bit(c3))
	sb.WriteByte(encode6Bit(c4))
}

func encode6Bit(b byte) byte {
	switch {
	case b < 10:
		return '0' + b
	case b < 36:
		return 'A' + (b - 10)
	case b < 62:
		return 'a' + (b - 36)
	case b == 62:
		return '-'
	default:
		return '_'
	}
}
