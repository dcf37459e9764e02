package gifdec

// GIF89a disposal methods from the graphic control extension.
const (
	// DisposalUnspecified means take no action.
	DisposalUnspecified = 0
	// DisposalNone means leave the canvas from the previous frame.
	DisposalNone = 1
	// DisposalBackground means clear the canvas to the background color.
	DisposalBackground = 2
	// DisposalPrevious means restore the canvas to the frame before last.
	DisposalPrevious = 3
)

// Frame describes a single image within the animation. Fields are filled
// by the structural parser and treated as read-only by the decoder.
type Frame struct {
	// Position and size of the frame rectangle within the logical screen.
	IX, IY, IW, IH int

	// Interlace indicates four-pass interlaced row ordering.
	Interlace bool

	// Disposal is one of the Disposal* constants.
	Disposal int

	// Transparency marks TransIndex as a transparent color index.
	Transparency bool
	TransIndex   int

	// LCT is the local color table (packed ARGB), or nil.
	LCT []uint32

	// Delay is the display duration in milliseconds.
	Delay int

	// DataOffset is the byte offset in the source where the frame's
	// LZW min-code-size byte begins.
	DataOffset int64
}

// Header is the parsed structure of a GIF stream: logical screen plus the
// ordered frame sequence. It is constructed once and never mutated by the
// decoder.
type Header struct {
	Width  int
	Height int

	// GCT is the global color table (packed ARGB), or nil.
	GCT []uint32

	// BgIndex is the background color index into GCT.
	BgIndex int
	// BgColor is GCT[BgIndex] resolved at parse time, 0 if no GCT.
	BgColor uint32

	// LoopCount is the Netscape iteration count. 0 means repeat forever,
	// 1 if none was specified.
	LoopCount int

	Frames []*Frame
}

// FrameCount returns the number of frames in the animation.
func (h *Header) FrameCount() int {
	return len(h.Frames)
}
