package diagram

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Codec:
// - EncodeBytes maps each 6-bit range onto the right symbol range
// - EncodeBytes zero-pads a short final group and still emits four symbols
// - EncodeBytes output length is 4*ceil(n/3)
// - EncodeBytes reproduces the reference token for a known zlib payload
// - Encode is deterministic
// - Encode only emits alphabet symbols
// - Encode output inflates back to the original text (raw deflate payload)
// - Encode handles empty and non-ASCII text

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

func TestEncodeBytes_SymbolRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"all zero", []byte{0x00, 0x00, 0x00}, "0000"},
		{"all ones", []byte{0xFF, 0xFF, 0xFF}, "____"},
		{"digit one in every group", []byte{0x04, 0x10, 0x41}, "1111"},
		// 6-bit groups 10, 36, 62, 63
		{"range boundaries", []byte{0x2A, 0x4F, 0xBF}, "Aa-_"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeBytes(tt.input))
		})
	}
}

func TestEncodeBytes_PadsFinalGroup(t *testing.T) {
	t.Parallel()

	// Test: one byte 0xFC -> groups 63, 0, 0, 0
	assert.Equal(t, "_000", EncodeBytes([]byte{0xFC}))

	// Test: two bytes 0xFF 0xFF -> groups 63, 63, 60, 0
	assert.Equal(t, "__y0", EncodeBytes([]byte{0xFF, 0xFF}))
}

func TestEncodeBytes_LengthLaw(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for n := 0; n <= 64; n++ {
		data := make([]byte, n)
		rng.Read(data)

		want := 4 * ((n + 2) / 3)
		assert.Len(t, EncodeBytes(data), want, "payload of %d bytes", n)
	}
}

func TestEncodeBytes_GoldenVector(t *testing.T) {
	t.Parallel()

	// Raw deflate payload C zlib emits for the text below at the default level.
	const text = "@startuml\nBob -> Alice : hello\n@enduml\n"
	payload := []byte{
		0x73, 0x28, 0x2E, 0x49, 0x2C, 0x2A, 0x29, 0xCD, 0xCD, 0xE1,
		0x72, 0xCA, 0x4F, 0x52, 0xD0, 0xB5, 0x53, 0x70, 0xCC, 0xC9,
		0x4C, 0x4E, 0x55, 0xB0, 0x52, 0xC8, 0x48, 0xCD, 0xC9, 0xC9,
		0xE7, 0x72, 0x48, 0xCD, 0x4B, 0x01, 0x49, 0x02, 0x00,
	}

	r := flate.NewReader(bytes.NewReader(payload))
	inflated, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, text, string(inflated))

	assert.Equal(t, "SoWkIImgAStDuNBAJrBGjLDmpCbCJbMmKiX8pSd9vt98pKi1IG80", EncodeBytes(payload))

	// Our own compressor may pick different bytes, but the server must see the same text.
	token, err := Encode(text)
	require.NoError(t, err)
	r = flate.NewReader(bytes.NewReader(decodeSymbols(t, token)))
	ours, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, text, string(ours))
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	doc := "@startuml\nclass Dog {\n  - legs : Unknown\n}\nAnimal <|-- Dog\n@enduml\n"

	first, err := Encode(doc)
	require.NoError(t, err)
	second, err := Encode(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestEncode_AlphabetClosure(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"Bob -> Alice : hello",
		"@startuml\nclass Ünïcödé {\n}\n@enduml\n",
		strings.Repeat("class A {\n  + run() : void\n}\n", 200),
	}

	for _, input := range inputs {
		token, err := Encode(input)
		require.NoError(t, err)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected symbol %q", r)
		}
		assert.Zero(t, len(token)%4)
	}
}

func TestEncode_InflatesToOriginal(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"Bob -> Alice : hello",
		"@startuml\nclass Dog {\n  - legs : Unknown\n  + bark(volume) : str\n}\nAnimal <|-- Dog\n@enduml\n",
		"@startuml\nclass Ünïcödé {\n}\n@enduml\n",
	}

	for _, input := range inputs {
		token, err := Encode(input)
		require.NoError(t, err)

		payload := decodeSymbols(t, token)
		r := flate.NewReader(bytes.NewReader(payload))
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())

		assert.Equal(t, input, string(got))
	}
}

// decodeSymbols reverses EncodeBytes. Padding bytes from the final group are
// left in place; the deflate reader stops at the final block.
func decodeSymbols(t *testing.T, token string) []byte {
	t.Helper()

	require.Zero(t, len(token)%4)
	out := make([]byte, 0, len(token)/4*3)
	for i := 0; i < len(token); i += 4 {
		var c [4]byte
		for j := 0; j < 4; j++ {
			idx := strings.IndexByte(alphabet, token[i+j])
			require.GreaterOrEqual(t, idx, 0)
			c[j] = byte(idx)
		}
		out = append(out,
			c[0]<<2|c[1]>>4,
			(c[1]&0xF)<<4|c[2]>>2,
			(c[2]&0x3)<<6|c[3],
		)
	}
	return out
}
