package gifdec

import "bytes"

// encodeLZW compresses index pixels as a run of literal codes, keeping
// code-width growth in lockstep with the decoder's table so the stream
// is valid GIF-LZW.
func encodeLZW(minCodeSize int, pixels []byte) []byte {
	clear := 1 << minCodeSize
	eoi := clear + 1
	codeSize := minCodeSize + 1
	available := clear + 2

	var out []byte
	var acc, nbits int
	emit := func(code int) {
		acc |= code << nbits
		nbits += codeSize
		for nbits >= 8 {
			out = append(out, byte(acc))
			acc >>= 8
			nbits -= 8
		}
	}

	emit(clear)
	for i, p := range pixels {
		emit(int(p))
		if i == 0 {
			// The decoder adds no table entry for the first code
			// after a clear.
			continue
		}
		if available < maxTableSize {
			available++
			if available&((1<<codeSize)-1) == 0 && available < maxTableSize {
				codeSize++
			}
		}
	}
	emit(eoi)
	if nbits > 0 {
		out = append(out, byte(acc))
	}
	return out
}

// subBlocks wraps data into length-prefixed GIF sub-blocks plus the
// terminator.
func subBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > maxBlockSize {
			n = maxBlockSize
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return append(out, 0)
}

type testFrame struct {
	x, y, w, h   int
	pixels       []byte
	delayCS      int
	disposal     int
	transparency bool
	transIndex   int
	interlace    bool
	lct          [][3]byte

	// rawData, when set, replaces the compressed pixel stream. It is
	// still wrapped in valid sub-blocks.
	rawData []byte
}

type testGIF struct {
	w, h    int
	gct     [][3]byte
	bgIndex int
	loops   int // -1 omits the Netscape extension
	frames  []testFrame
}

// encode renders the fixture as GIF89a bytes.
func (g testGIF) encode() []byte {
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	writeUint16(&buf, g.w)
	writeUint16(&buf, g.h)
	packed := byte(0)
	if len(g.gct) > 0 {
		packed = 0x80 | tableBits(len(g.gct))
	}
	buf.WriteByte(packed)
	buf.WriteByte(byte(g.bgIndex))
	buf.WriteByte(0) // aspect ratio
	writeColors(&buf, g.gct)

	if g.loops >= 0 {
		buf.Write([]byte{sectionExtension, extApplication, 11})
		buf.WriteString("NETSCAPE2.0")
		buf.WriteByte(3)
		buf.WriteByte(1)
		writeUint16(&buf, g.loops)
		buf.WriteByte(0)
	}

	for _, f := range g.frames {
		buf.Write([]byte{sectionExtension, extGraphicControl, 4})
		p := byte(f.disposal << 2)
		if f.transparency {
			p |= 1
		}
		buf.WriteByte(p)
		writeUint16(&buf, f.delayCS)
		buf.WriteByte(byte(f.transIndex))
		buf.WriteByte(0)

		buf.WriteByte(sectionImageDescriptor)
		writeUint16(&buf, f.x)
		writeUint16(&buf, f.y)
		writeUint16(&buf, f.w)
		writeUint16(&buf, f.h)
		ip := byte(0)
		if len(f.lct) > 0 {
			ip = 0x80 | tableBits(len(f.lct))
		}
		if f.interlace {
			ip |= 0x40
		}
		buf.WriteByte(ip)
		writeColors(&buf, f.lct)

		table := f.lct
		if table == nil {
			table = g.gct
		}
		mcs := minCodeSizeFor(len(table))
		buf.WriteByte(byte(mcs))
		stream := f.rawData
		if stream == nil {
			stream = encodeLZW(mcs, f.pixels)
		}
		buf.Write(subBlocks(stream))
	}

	buf.WriteByte(sectionTrailer)
	return buf.Bytes()
}

func writeUint16(buf *bytes.Buffer, v int) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func writeColors(buf *bytes.Buffer, table [][3]byte) {
	for _, c := range table {
		buf.Write([]byte{c[0], c[1], c[2]})
	}
}

// tableBits encodes a power-of-two table length into the 3-bit size
// field of a screen or image descriptor.
func tableBits(n int) byte {
	bits := byte(0)
	for 2<<bits < n {
		bits++
	}
	return bits
}

func minCodeSizeFor(tableLen int) int {
	mcs := 2
	for 1<<mcs < tableLen {
		mcs++
	}
	return mcs
}

// argb packs a color-table triplet the way the parser does.
func argb(c [3]byte) uint32 {
	return 0xFF000000 | uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

// avg2 is the channelwise integer average of two packed colors, matching
// the downsampler's truncation.
func avg2(a, b uint32) uint32 {
	avg := func(shift uint) uint32 {
		return (a>>shift&0xff + b>>shift&0xff) / 2 << shift
	}
	return avg(24) | avg(16) | avg(8) | avg(0)
}

// fill returns n copies of the given index value.
func fill(n int, v byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = v
	}
	return p
}

// mustDecoder builds a decoder over an encoded fixture for tests that
// are not about construction failures.
func mustDecoder(data []byte, sampleSize int) (*Decoder, *Header) {
	src := NewMemorySource(data)
	header, err := ParseHeader(src)
	if err != nil {
		panic(err)
	}
	d, err := NewDecoder(NewPoolProvider(), header, src, sampleSize)
	if err != nil {
		panic(err)
	}
	return d, header
}
