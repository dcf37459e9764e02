package gifdec

import (
	"math/bits"
	"sync"
)

const initialFramePointer = -1

// Decoder reads frame data from a GIF source and composites it into
// individual frames for animation playback.
//
// It is optimized for running animations: there is no random access to
// individual frames, only decoding of the next frame in sequence, which
// keeps the memory footprint at the minimum needed to produce that frame.
//
// The animation must be moved forward with Advance before requesting a
// frame; NextFrame before the first Advance is a format error.
type Decoder struct {
	mu sync.Mutex

	provider BufferProvider
	header   *Header
	src      ByteSource
	reader   *blockReader
	lzw      lzwDecoder

	// mainPixels holds one index byte per full-resolution pixel of the
	// logical screen; mainScratch is the downsampled composite canvas.
	// Both are reused across frames and grown, never shrunk.
	mainPixels  []byte
	mainScratch []uint32

	framePointer int
	status       Status
	sampleSize   int

	downsampledWidth  int
	downsampledHeight int

	// previousImage retains the last kept canvas, allocated only when
	// some frame disposes with DisposalPrevious.
	previousImage *PixelBuffer
	savePrevious  bool

	firstFrameTransparent bool
}

// NewDecoder creates a decoder over the given parsed header and byte
// source. sampleSize is rounded down to the nearest power of two; pass 1
// for full resolution.
func NewDecoder(provider BufferProvider, header *Header, src ByteSource, sampleSize int) (*Decoder, error) {
	d := &Decoder{provider: provider}
	if err := d.SetData(header, src, sampleSize); err != nil {
		return nil, err
	}
	return d, nil
}

// SetData (re)initializes the decoder for a new header and source,
// resetting the frame pointer and all sticky status. The previous source,
// if any, is not closed; Close the decoder first when swapping streams.
func (d *Decoder) SetData(header *Header, src ByteSource, sampleSize int) error {
	if sampleSize <= 0 {
		return errStatus(StatusFormatError, "sample size must be >0, not %d", sampleSize)
	}
	// Round down to a power of two.
	sampleSize = 1 << (bits.Len(uint(sampleSize)) - 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.status = StatusOK
	d.header = header
	d.src = src
	if d.reader != nil {
		d.reader.release()
	}
	d.reader = newBlockReader(src, d.provider)
	d.framePointer = initialFramePointer
	d.firstFrameTransparent = false
	if d.previousImage != nil {
		// A retained canvas from the old stream or sample size is
		// meaningless now.
		d.provider.ReleasePixels(d.previousImage)
		d.previousImage = nil
	}

	// No point retaining an old canvas if no frame ever restores it.
	d.savePrevious = false
	for _, frame := range header.Frames {
		if frame.Disposal == DisposalPrevious {
			d.savePrevious = true
			break
		}
	}

	d.sampleSize = sampleSize
	d.downsampledWidth = header.Width / sampleSize
	d.downsampledHeight = header.Height / sampleSize

	d.mainPixels = growBytes(d.mainPixels, header.Width*header.Height)
	d.mainScratch = growPixels(d.mainScratch, d.downsampledWidth*d.downsampledHeight)
	return nil
}

// Width returns the logical screen width in full-resolution pixels.
func (d *Decoder) Width() int { return d.header.Width }

// Height returns the logical screen height in full-resolution pixels.
func (d *Decoder) Height() int { return d.header.Height }

// FrameCount returns the number of frames in the animation.
func (d *Decoder) FrameCount() int { return d.header.FrameCount() }

// LoopCount returns the Netscape iteration count; 0 means repeat forever.
func (d *Decoder) LoopCount() int { return d.header.LoopCount }

// Delay returns the display duration of frame n in milliseconds, or -1
// if n is out of range.
func (d *Decoder) Delay(n int) int {
	if n < 0 || n >= d.header.FrameCount() {
		return -1
	}
	return d.header.Frames[n].Delay
}

// NextDelay returns the display duration of the upcoming frame in
// milliseconds, or 0 when the animation has not started.
func (d *Decoder) NextDelay() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.header.FrameCount() <= 0 || d.framePointer < 0 {
		return 0
	}
	return d.Delay(d.framePointer)
}

// CurrentFrameIndex returns the index of the current frame, or -1 if the
// animation has not started.
func (d *Decoder) CurrentFrameIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framePointer
}

// Status returns the outcome of the most recent decode attempt. Format
// and read failures persist across frames; partial decodes do not.
func (d *Decoder) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// FirstFrameTransparent reports whether decoding has established that the
// first frame leaves transparent pixels on the canvas, which downstream
// compositing must honor when blending over other content.
func (d *Decoder) FirstFrameTransparent() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firstFrameTransparent
}

// Advance moves the animation frame pointer forward, wrapping past the
// last frame back to the first. It never decodes.
func (d *Decoder) Advance() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.header.FrameCount(); n > 0 {
		d.framePointer = (d.framePointer + 1) % n
	}
}

// ResetFrameIndex rewinds the frame pointer to before the first frame, as
// if the decoder had never been advanced.
func (d *Decoder) ResetFrameIndex() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.framePointer = initialFramePointer
}

// NextFrame decodes and composites the frame the pointer currently
// rests on and returns it at downsampled resolution. The caller owns the
// returned buffer and releases it to the provider when done.
//
// On a sticky error (format or read) the result is nil and the same
// error is returned on every call until SetData. A partially decoded
// frame is still returned, with Status reporting StatusPartialDecode.
func (d *Decoder) NextFrame() (*PixelBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.header.FrameCount() <= 0 {
		d.status = StatusFormatError
		return nil, ErrNoFrames
	}
	if d.framePointer < 0 {
		d.status = StatusFormatError
		return nil, ErrNotStarted
	}
	if d.status.Sticky() {
		return nil, errStatus(d.status, "decoder stopped, reconfigure with SetData")
	}
	d.status = StatusOK

	currentFrame := d.header.Frames[d.framePointer]
	var previousFrame *Frame
	if d.framePointer > 0 {
		previousFrame = d.header.Frames[d.framePointer-1]
	}

	// Pick the active color table. The header is read-only, so the
	// effective background color lives in a local instead of the
	// header-level field.
	act := currentFrame.LCT
	bgColor := d.header.BgColor
	if act == nil {
		act = d.header.GCT
	} else if d.header.BgIndex == currentFrame.TransIndex {
		bgColor = 0
	}
	if act == nil {
		d.status = StatusFormatError
		return nil, ErrNoColorTable
	}

	// Instead of zeroing the transparent entry in a shared table, the
	// index is passed down and color resolution skips it.
	transIndex := -1
	if currentFrame.Transparency {
		transIndex = currentFrame.TransIndex
	}

	return d.setPixels(currentFrame, previousFrame, act, transIndex, bgColor)
}

// Close releases all scratch buffers to the provider and closes the byte
// source. The decoder must not be used afterwards.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.mainPixels = nil
	d.mainScratch = nil
	if d.previousImage != nil {
		d.provider.ReleasePixels(d.previousImage)
		d.previousImage = nil
	}
	if d.reader != nil {
		d.reader.release()
		d.reader = nil
	}
	d.firstFrameTransparent = false

	var err error
	if d.src != nil {
		err = d.src.Close()
		d.src = nil
	}
	return err
}

// growBytes returns a slice of at least n bytes, reusing b's backing
// array when it is already large enough.
func growBytes(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return make([]byte, n)
}

func growPixels(p []uint32, n int) []uint32 {
	if cap(p) >= n {
		return p[:n]
	}
	return make([]uint32, n)
}
