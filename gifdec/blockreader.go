package gifdec

import "io"

// Work buffer size for chunked source reads. Reading the source in 16k
// chunks keeps per-byte call overhead off the decode hot path.
const workBufferSize = 16384

// maxBlockSize is the largest possible GIF sub-block payload; the length
// prefix is a single byte.
const maxBlockSize = 255

// blockReader feeds the LZW decompressor and the structural parser from a
// ByteSource, one chunk at a time. All source failures are translated to
// DecodeError here so upper layers only ever see the status taxonomy.
type blockReader struct {
	src      ByteSource
	provider BufferProvider

	work     []byte
	workSize int
	workPos  int

	// block holds the payload of the most recent sub-block read.
	block []byte

	// offset is the absolute source position of the next unconsumed byte.
	offset int64
}

func newBlockReader(src ByteSource, provider BufferProvider) *blockReader {
	return &blockReader{src: src, provider: provider}
}

// seek discards buffered data and repositions the source.
func (r *blockReader) seek(offset int64) error {
	if err := r.src.Seek(offset); err != nil {
		if _, ok := IsDecodeError(err); ok {
			return err
		}
		return errStatus(StatusReadError, "seek to %d: %v", offset, err)
	}
	r.workSize = 0
	r.workPos = 0
	r.offset = offset
	return nil
}

// pos returns the absolute source offset of the next byte readByte would
// return.
func (r *blockReader) pos() int64 {
	return r.offset
}

// fill refills the work buffer when it is exhausted. Refill length is
// min(remaining, capacity); a zero-length refill means the source is
// exhausted.
func (r *blockReader) fill() error {
	if r.workPos < r.workSize {
		return nil
	}
	if r.work == nil {
		r.work = r.provider.ObtainBytes(workBufferSize)
	}
	want := int(r.src.Remaining())
	if want > len(r.work) {
		want = len(r.work)
	}
	if want <= 0 {
		return errStatus(StatusReadError, "source exhausted at offset %d", r.offset)
	}
	if _, err := io.ReadFull(r.src, r.work[:want]); err != nil {
		return errStatus(StatusReadError, "read %d bytes at offset %d: %v", want, r.offset, err)
	}
	r.workPos = 0
	r.workSize = want
	return nil
}

// readByte reads a single byte from the source.
func (r *blockReader) readByte() (byte, error) {
	if err := r.fill(); err != nil {
		return 0, err
	}
	b := r.work[r.workPos]
	r.workPos++
	r.offset++
	return b, nil
}

// readFull reads exactly len(p) bytes into p.
func (r *blockReader) readFull(p []byte) error {
	for len(p) > 0 {
		if err := r.fill(); err != nil {
			return err
		}
		n := copy(p, r.work[r.workPos:r.workSize])
		r.workPos += n
		r.offset += int64(n)
		p = p[n:]
	}
	return nil
}

// readBlock reads the next length-prefixed sub-block into r.block and
// returns its payload length. A zero return is the sub-block terminator.
// A block spanning the work-buffer boundary is assembled with a two-part
// copy across a refill.
func (r *blockReader) readBlock() (int, error) {
	sizeByte, err := r.readByte()
	if err != nil {
		return 0, err
	}
	blockSize := int(sizeByte)
	if blockSize == 0 {
		return 0, nil
	}
	if r.block == nil {
		r.block = r.provider.ObtainBytes(maxBlockSize)
	}
	buffered := r.workSize - r.workPos
	if int64(buffered)+r.src.Remaining() < int64(blockSize) {
		return 0, errStatus(StatusFormatError, "sub-block of %d bytes truncated at offset %d", blockSize, r.offset)
	}
	// readFull performs the split copy when the block straddles the
	// boundary between the buffered chunk and the next refill.
	if err := r.readFull(r.block[:blockSize]); err != nil {
		return 0, err
	}
	return blockSize, nil
}

// skipBlocks consumes sub-blocks up to and including the terminator.
func (r *blockReader) skipBlocks() error {
	for {
		n, err := r.readBlock()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// release hands the reader's scratch arrays back to the provider.
func (r *blockReader) release() {
	if r.work != nil {
		r.provider.ReleaseBytes(r.work)
		r.work = nil
	}
	if r.block != nil {
		r.provider.ReleaseBytes(r.block)
		r.block = nil
	}
	r.workSize = 0
	r.workPos = 0
}
