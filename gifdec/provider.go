package gifdec

// PixelBuffer is a packed-ARGB pixel rectangle, row-major with stride W.
type PixelBuffer struct {
	W, H int
	Pix  []uint32
}

// CopyFrom overwrites the buffer's pixels from src, which must hold at
// least W*H values.
func (b *PixelBuffer) CopyFrom(src []uint32) {
	copy(b.Pix, src[:b.W*b.H])
}

// CopyTo writes the buffer's pixels into dst, which must hold at least
// W*H values.
func (b *PixelBuffer) CopyTo(dst []uint32) {
	copy(dst[:b.W*b.H], b.Pix)
}

// BufferProvider supplies reusable pixel buffers and byte scratch arrays
// so a playback loop does not allocate per frame. The decoder releases
// every buffer it obtains, including on Close.
type BufferProvider interface {
	// ObtainPixels returns a buffer with exactly the given dimensions.
	ObtainPixels(w, h int) *PixelBuffer
	// ReleasePixels returns a buffer to the provider.
	ReleasePixels(b *PixelBuffer)
	// ObtainBytes returns a byte array of at least the given size.
	ObtainBytes(size int) []byte
	// ReleaseBytes returns a byte array to the provider.
	ReleaseBytes(b []byte)
}

// PoolProvider is a BufferProvider backed by free lists keyed on size.
// It is not safe for concurrent use; share one per playback goroutine.
type PoolProvider struct {
	pixels map[int][]*PixelBuffer
	bytes  map[int][][]byte
}

// NewPoolProvider creates an empty PoolProvider.
func NewPoolProvider() *PoolProvider {
	return &PoolProvider{
		pixels: make(map[int][]*PixelBuffer),
		bytes:  make(map[int][][]byte),
	}
}

func (p *PoolProvider) ObtainPixels(w, h int) *PixelBuffer {
	key := w * h
	if free := p.pixels[key]; len(free) > 0 {
		b := free[len(free)-1]
		p.pixels[key] = free[:len(free)-1]
		b.W, b.H = w, h
		for i := range b.Pix {
			b.Pix[i] = 0
		}
		return b
	}
	return &PixelBuffer{W: w, H: h, Pix: make([]uint32, w*h)}
}

func (p *PoolProvider) ReleasePixels(b *PixelBuffer) {
	if b == nil {
		return
	}
	key := len(b.Pix)
	p.pixels[key] = append(p.pixels[key], b)
}

func (p *PoolProvider) ObtainBytes(size int) []byte {
	if free := p.bytes[size]; len(free) > 0 {
		b := free[len(free)-1]
		p.bytes[size] = free[:len(free)-1]
		for i := range b {
			b[i] = 0
		}
		return b
	}
	return make([]byte, size)
}

func (p *PoolProvider) ReleaseBytes(b []byte) {
	if b == nil {
		return
	}
	p.bytes[len(b)] = append(p.bytes[len(b)], b)
}

// allocProvider satisfies BufferProvider with plain allocations and no
// reuse. Used where pooling is not worth the bookkeeping.
type allocProvider struct{}

func (allocProvider) ObtainPixels(w, h int) *PixelBuffer {
	return &PixelBuffer{W: w, H: h, Pix: make([]uint32, w*h)}
}
func (allocProvider) ReleasePixels(*PixelBuffer) {}
func (allocProvider) ObtainBytes(size int) []byte { return make([]byte, size) }
func (allocProvider) ReleaseBytes([]byte)         {}
