package gifdec

// GIF block introducers and extension labels.
const (
	sectionExtension       = 0x21
	sectionImageDescriptor = 0x2C
	sectionTrailer         = 0x3B

	extPlainText      = 0x01
	extGraphicControl = 0xF9
	extComment        = 0xFE
	extApplication    = 0xFF
)

// graphicControl carries the contents of the most recent graphic control
// extension, pending until the image descriptor it modifies arrives.
type graphicControl struct {
	disposal     int
	transparency bool
	transIndex   int
	delay        int
}

// ParseHeader reads the structure of a GIF stream: logical screen
// descriptor, color tables, per-frame control data, and the byte offset
// of each frame's compressed pixel data. The pixel data itself is only
// skipped over, never decompressed.
//
// A stream that is cut off mid-animation still yields a header with the
// frames parsed up to the truncation point; a malformed stream is a
// FormatError.
func ParseHeader(src ByteSource) (*Header, error) {
	r := newBlockReader(src, allocProvider{})
	if err := r.seek(0); err != nil {
		return nil, err
	}

	var sig [6]byte
	if err := r.readFull(sig[:]); err != nil {
		return nil, errStatus(StatusFormatError, "short GIF signature")
	}
	version := string(sig[:])
	if version != "GIF87a" && version != "GIF89a" {
		return nil, errStatus(StatusFormatError, "bad GIF signature %q", version)
	}

	var lsd [7]byte
	if err := r.readFull(lsd[:]); err != nil {
		return nil, errStatus(StatusFormatError, "short logical screen descriptor")
	}
	header := &Header{
		Width:     int(lsd[0]) | int(lsd[1])<<8,
		Height:    int(lsd[2]) | int(lsd[3])<<8,
		BgIndex:   int(lsd[5]),
		LoopCount: 1,
	}
	packed := lsd[4]
	if packed&0x80 != 0 {
		gct, err := readColorTable(r, 2<<(packed&7))
		if err != nil {
			return nil, err
		}
		header.GCT = gct
		if header.BgIndex < len(gct) {
			header.BgColor = gct[header.BgIndex]
		}
	}

	var gce *graphicControl
blocks:
	for {
		c, err := r.readByte()
		if err != nil {
			// Truncated after the last complete block; keep what we have.
			break
		}
		switch c {
		case sectionExtension:
			label, err := r.readByte()
			if err != nil {
				break blocks
			}
			switch label {
			case extGraphicControl:
				n, err := r.readBlock()
				if err != nil {
					break blocks
				}
				if n >= 4 {
					gce = &graphicControl{
						disposal:     int(r.block[0]>>2) & 0x7,
						transparency: r.block[0]&1 != 0,
						delay:        (int(r.block[1]) | int(r.block[2])<<8) * 10,
						transIndex:   int(r.block[3]),
					}
				}
				if err := r.skipBlocks(); err != nil {
					break blocks
				}
			case extApplication:
				n, err := r.readBlock()
				if err != nil {
					break blocks
				}
				netscape := n == 11 && string(r.block[:11]) == "NETSCAPE2.0"
				for {
					n, err = r.readBlock()
					if err != nil {
						break blocks
					}
					if n == 0 {
						break
					}
					if netscape && n >= 3 && r.block[0] == 1 {
						header.LoopCount = int(r.block[1]) | int(r.block[2])<<8
					}
				}
			default:
				// Comments, plain text, anything unknown.
				if err := r.skipBlocks(); err != nil {
					break blocks
				}
			}
		case sectionImageDescriptor:
			frame, err := readImageDescriptor(r, gce)
			gce = nil
			if frame != nil {
				header.Frames = append(header.Frames, frame)
			}
			if err != nil {
				break blocks
			}
		case sectionTrailer:
			break blocks
		default:
			return nil, errStatus(StatusFormatError, "unknown block type 0x%02x at offset %d", c, r.pos()-1)
		}
	}

	return header, nil
}

// readImageDescriptor parses one image descriptor plus its optional local
// color table, records where the compressed data starts, and skips past
// it. The frame is returned even when its pixel data turns out truncated,
// so playback can still partially decode it.
func readImageDescriptor(r *blockReader, gce *graphicControl) (*Frame, error) {
	var desc [9]byte
	if err := r.readFull(desc[:]); err != nil {
		return nil, err
	}
	frame := &Frame{
		IX:        int(desc[0]) | int(desc[1])<<8,
		IY:        int(desc[2]) | int(desc[3])<<8,
		IW:        int(desc[4]) | int(desc[5])<<8,
		IH:        int(desc[6]) | int(desc[7])<<8,
		Interlace: desc[8]&0x40 != 0,
	}
	if gce != nil {
		frame.Disposal = gce.disposal
		frame.Transparency = gce.transparency
		frame.TransIndex = gce.transIndex
		frame.Delay = gce.delay
	}
	if desc[8]&0x80 != 0 {
		lct, err := readColorTable(r, 2<<(desc[8]&7))
		if err != nil {
			return nil, err
		}
		frame.LCT = lct
	}
	frame.DataOffset = r.pos()

	// Skip the min-code-size byte and the sub-block run.
	if _, err := r.readByte(); err != nil {
		return frame, err
	}
	if err := r.skipBlocks(); err != nil {
		return frame, err
	}
	return frame, nil
}

// readColorTable reads n RGB triplets into packed opaque ARGB values.
func readColorTable(r *blockReader, n int) ([]uint32, error) {
	raw := make([]byte, 3*n)
	if err := r.readFull(raw); err != nil {
		return nil, errStatus(StatusFormatError, "short color table of %d entries", n)
	}
	table := make([]uint32, n)
	for i := 0; i < n; i++ {
		table[i] = 0xFF000000 |
			uint32(raw[3*i])<<16 |
			uint32(raw[3*i+1])<<8 |
			uint32(raw[3*i+2])
	}
	return table, nil
}
