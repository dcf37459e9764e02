package gifdec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// rawStream prepends the min-code-size byte and wraps the compressed
// data into sub-blocks, producing a frame data stream at offset 0.
func rawStream(minCodeSize int, pixels []byte) []byte {
	out := []byte{byte(minCodeSize)}
	return append(out, subBlocks(encodeLZW(minCodeSize, pixels))...)
}

func decodeRaw(t *testing.T, stream []byte, npix int) ([]byte, Status) {
	t.Helper()
	r := newBlockReader(NewMemorySource(stream), allocProvider{})
	require.NoError(t, r.seek(0))
	var lzw lzwDecoder
	out := make([]byte, npix)
	status, err := lzw.decode(r, nil, npix, out)
	require.NoError(t, err)
	return out, status
}

func TestLZWRoundtrip(t *testing.T) {
	testCases := []struct {
		name        string
		minCodeSize int
		pixels      []byte
	}{
		{"single pixel", 2, []byte{3}},
		{"two pixels", 2, []byte{1, 2}},
		{"small run", 2, fill(16, 1)},
		{"multi block", 2, fill(2048, 3)},
		{"8-bit indices", 8, patternPixels(5000)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stream := rawStream(tc.minCodeSize, tc.pixels)
			out, status := decodeRaw(t, stream, len(tc.pixels))
			require.Equal(t, StatusOK, status)
			require.Equal(t, tc.pixels, out)
		})
	}
}

// patternPixels generates a deterministic byte pattern long enough to
// drive the code width through several growth steps.
func patternPixels(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7 % 251)
	}
	return p
}

func TestLZWTruncatedStream(t *testing.T) {
	pixels := fill(4096, 1)
	stream := rawStream(8, pixels)

	// Keep the min-code-size byte and the first sub-block only.
	firstBlock := int(stream[1])
	truncated := stream[:2+firstBlock]

	out, status := decodeRaw(t, truncated, len(pixels))
	require.Equal(t, StatusPartialDecode, status)

	// Some prefix decoded, everything after it zero-filled.
	require.Equal(t, byte(1), out[0])
	require.Equal(t, byte(0), out[len(out)-1])
	seenZero := false
	for _, p := range out {
		if seenZero {
			require.Equal(t, byte(0), p)
		} else if p == 0 {
			seenZero = true
		}
	}
	require.True(t, seenZero)
}

func TestLZWCorruptCode(t *testing.T) {
	// minCodeSize 2: clear=4, eoi=5, available=6. The 3-bit codes
	// 4 then 7 name a table entry that cannot exist yet.
	stream := []byte{2, 1, 0x3C, 0}
	out, status := decodeRaw(t, stream, 4)
	require.Equal(t, StatusPartialDecode, status)
	require.Equal(t, fill(4, 0), out)
}

func TestLZWOversizedMinCodeSize(t *testing.T) {
	stream := []byte{13, 1, 0xFF, 0}
	out, status := decodeRaw(t, stream, 4)
	require.Equal(t, StatusPartialDecode, status)
	require.Equal(t, fill(4, 0), out)
}

func TestLZWMidStreamClear(t *testing.T) {
	// Two literal runs separated by an explicit clear code. The clear
	// resets the table, not the byte stream.
	minCodeSize := 2
	clear := 1 << minCodeSize
	eoi := clear + 1
	codeSize := minCodeSize + 1
	available := clear + 2

	var data []byte
	var acc, nbits int
	emit := func(code int) {
		acc |= code << nbits
		nbits += codeSize
		for nbits >= 8 {
			data = append(data, byte(acc))
			acc >>= 8
			nbits -= 8
		}
	}
	reset := func() {
		codeSize = minCodeSize + 1
		available = clear + 2
	}
	literal := func(code int, firstAfterClear bool) {
		emit(code)
		if firstAfterClear {
			return
		}
		available++
		if available&((1<<codeSize)-1) == 0 && available < maxTableSize {
			codeSize++
		}
	}

	emit(clear)
	reset()
	literal(1, true)
	literal(2, false)
	emit(clear)
	reset()
	literal(3, true)
	literal(0, false)
	emit(eoi)
	if nbits > 0 {
		data = append(data, byte(acc))
	}

	stream := append([]byte{byte(minCodeSize)}, subBlocks(data)...)
	out, status := decodeRaw(t, stream, 4)
	require.Equal(t, StatusOK, status)
	require.Equal(t, []byte{1, 2, 3, 0}, out)
}

func TestLZWSeeksToFrameOffset(t *testing.T) {
	pixels := []byte{2, 1, 0, 3}
	payload := rawStream(2, pixels)
	stream := append(fill(11, 0xEE), payload...)

	r := newBlockReader(NewMemorySource(stream), allocProvider{})
	var lzw lzwDecoder
	out := make([]byte, len(pixels))
	frame := &Frame{IW: 2, IH: 2, DataOffset: 11}
	status, err := lzw.decode(r, frame, len(pixels), out)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	require.Equal(t, pixels, out)
}

func TestLZWSeekFailure(t *testing.T) {
	r := newBlockReader(NewMemorySource([]byte{1, 2, 3}), allocProvider{})
	var lzw lzwDecoder
	out := make([]byte, 4)
	frame := &Frame{IW: 2, IH: 2, DataOffset: 99}
	_, err := lzw.decode(r, frame, 4, out)
	require.Error(t, err)
	de, ok := IsDecodeError(err)
	require.True(t, ok)
	require.Equal(t, StatusReadError, de.Status)
}
