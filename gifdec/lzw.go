package gifdec

// maxTableSize is the largest LZW code table a GIF stream can build
// (12-bit codes). It also bounds the prefix-chain walk, so the pixel
// stack never needs more room than this.
const maxTableSize = 4096

const nullCode = -1

// pixelStack is the LIFO used to reverse prefix chains while expanding a
// code. Fixed capacity, push is bounds-checked.
type pixelStack struct {
	buf [maxTableSize + 1]byte
	top int
}

func (s *pixelStack) push(b byte) bool {
	if s.top >= len(s.buf) {
		return false
	}
	s.buf[s.top] = b
	s.top++
	return true
}

func (s *pixelStack) pop() byte {
	s.top--
	return s.buf[s.top]
}

func (s *pixelStack) reset() {
	s.top = 0
}

// lzwDecoder holds the working arrays for GIF-LZW decompression. They are
// reused across frames; a decoder owns exactly one.
type lzwDecoder struct {
	prefix [maxTableSize]int16
	suffix [maxTableSize]byte
	stack  pixelStack
}

// decode decompresses one frame's sub-block stream into out, producing
// npix index pixels. A nil frame decodes from the reader's current
// position (whole-image decode without seeking).
//
// Truncated or corrupt input is not fatal: decoding stops, the remaining
// positions of out[:npix] are zero-filled and StatusPartialDecode is
// returned. A seek failure is returned as an error before any pixel is
// produced.
func (d *lzwDecoder) decode(r *blockReader, frame *Frame, npix int, out []byte) (Status, error) {
	if frame != nil {
		if err := r.seek(frame.DataOffset); err != nil {
			return StatusReadError, err
		}
	}

	status := StatusOK

	// Initialize the code table from the min-code-size byte.
	minCodeSize, err := r.readByte()
	if err != nil {
		zeroFill(out[:npix])
		return StatusPartialDecode, nil
	}
	if minCodeSize > 11 {
		// A root table this large cannot fit below the 4096-entry cap.
		zeroFill(out[:npix])
		return StatusPartialDecode, nil
	}
	clear := 1 << minCodeSize
	endOfInformation := clear + 1
	available := clear + 2
	oldCode := nullCode
	codeSize := int(minCodeSize) + 1
	codeMask := (1 << codeSize) - 1
	for code := 0; code < clear; code++ {
		d.prefix[code] = 0
		d.suffix[code] = byte(code)
	}
	d.stack.reset()

	var (
		datum, bits int
		count, bi   int
		first       int
		pi, i       int
	)

decode:
	for i < npix {
		if count == 0 {
			// Load the next sub-block.
			count, err = r.readBlock()
			if err != nil || count <= 0 {
				status = StatusPartialDecode
				break
			}
			bi = 0
		}

		datum += int(r.block[bi]) << bits
		bits += 8
		bi++
		count--

		for bits >= codeSize {
			code := datum & codeMask
			datum >>= codeSize
			bits -= codeSize

			if code == clear {
				// Mid-stream reset of the code table.
				codeSize = int(minCodeSize) + 1
				codeMask = (1 << codeSize) - 1
				available = clear + 2
				oldCode = nullCode
				continue
			}

			if code == endOfInformation {
				break decode
			}

			if code > available {
				// Corrupt stream: the code names a string the
				// table cannot contain yet.
				status = StatusPartialDecode
				break decode
			}

			if oldCode == nullCode {
				// First code after a clear is always a literal and
				// can be emitted directly.
				if pi >= len(out) {
					status = StatusPartialDecode
					break decode
				}
				out[pi] = d.suffix[code]
				pi++
				i++
				oldCode = code
				first = code
				continue
			}

			inCode := code
			if code == available {
				// The one-ahead case: the string is the previous
				// string plus its own first pixel.
				d.stack.push(byte(first))
				code = oldCode
			}
			for code >= clear {
				if !d.stack.push(d.suffix[code]) {
					status = StatusPartialDecode
					break decode
				}
				code = int(d.prefix[code])
			}
			first = int(d.suffix[code])
			d.stack.push(byte(first))

			if available < maxTableSize {
				d.prefix[available] = int16(oldCode)
				d.suffix[available] = byte(first)
				available++
				if available&codeMask == 0 && available < maxTableSize {
					codeSize++
					codeMask += available
				}
			}
			oldCode = inCode

			// Pop the expanded string into the output in order.
			for s := &d.stack; s.top > 0; {
				if pi >= len(out) {
					status = StatusPartialDecode
					break decode
				}
				out[pi] = s.pop()
				pi++
				i++
			}
		}
	}

	// Clear missing pixels.
	if pi < npix {
		zeroFill(out[pi:npix])
	}

	return status, nil
}

func zeroFill(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
