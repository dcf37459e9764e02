package gifdec

import (
	"io"
	"os"
)

// ByteSource is a seekable byte stream with a known remaining length.
// Read failures surface to callers as StatusReadError.
type ByteSource interface {
	// Seek positions the next Read at the given absolute offset.
	Seek(offset int64) error
	// Read fills p with up to len(p) bytes, returning the count read.
	Read(p []byte) (int, error)
	// Remaining reports the number of bytes between the current
	// position and the end of the source.
	Remaining() int64
	Close() error
}

// MemorySource is a ByteSource over an in-memory byte slice.
type MemorySource struct {
	data []byte
	pos  int64
}

// NewMemorySource wraps data without copying it.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (s *MemorySource) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return errStatus(StatusReadError, "seek offset %d out of range [0,%d]", offset, len(s.data))
	}
	s.pos = offset
	return nil
}

func (s *MemorySource) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *MemorySource) Remaining() int64 {
	return int64(len(s.data)) - s.pos
}

func (s *MemorySource) Close() error {
	s.data = nil
	s.pos = 0
	return nil
}

// FileSource is a ByteSource over an open file.
type FileSource struct {
	f    *os.File
	size int64
	pos  int64
}

// OpenFileSource opens path for reading and stats it to learn its size.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: fi.Size()}, nil
}

func (s *FileSource) Seek(offset int64) error {
	pos, err := s.f.Seek(offset, io.SeekStart)
	if err != nil {
		return errStatus(StatusReadError, "seek: %v", err)
	}
	s.pos = pos
	return nil
}

func (s *FileSource) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *FileSource) Remaining() int64 {
	if s.pos >= s.size {
		return 0
	}
	return s.size - s.pos
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
