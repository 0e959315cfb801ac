package pipeline

import "io"

// Source supplies input bytes on demand. Next returns the next chunk of
// the stream, io.EOF when no more data exists, or any other error to
// signal a terminal input failure. The pipeline pulls chunks only when
// the buffer needs a refill, so a Source is a natural backpressure point.
type Source interface {
	Next() ([]byte, error)
}

type bytesSource struct {
	data []byte
	done bool
}

// BytesSource returns a Source yielding the complete blob in one chunk.
func BytesSource(data []byte) Source {
	return &bytesSource{data: data}
}

// StringSource returns a Source yielding the complete string in one chunk.
func StringSource(s string) Source {
	return &bytesSource{data: []byte(s)}
}

func (s *bytesSource) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	if len(s.data) == 0 {
		return nil, io.EOF
	}
	return s.data, nil
}

type readerSource struct {
	r    io.Reader
	size int
}

// ReaderSource returns a Source pulling chunks of up to chunkSize bytes
// from r. A chunkSize of zero or less uses 4096.
func ReaderSource(r io.Reader, chunkSize int) Source {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &readerSource{r: r, size: chunkSize}
}

func (s *readerSource) Next() ([]byte, error) {
	buf := make([]byte, s.size)
	n, err := s.r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}
