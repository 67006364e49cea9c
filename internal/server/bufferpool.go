package server

import "sync"

// BufferPool manages reusable receive buffers
type BufferPool struct {
	small  sync.Pool // 4KB buffers
	medium sync.Pool // 32KB buffers
	large  sync.Pool // 128KB buffers
}

const (
	smallBufferSize  = 4096
	mediumBufferSize = 32768
	largeBufferSize  = 131072
)

// Global buffer pool instance
var globalBufferPool = &BufferPool{
	small: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, smallBufferSize)
			return &buf
		},
	},
	medium: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, mediumBufferSize)
			return &buf
		},
	},
	large: sync.Pool{
		New: func() interface{} {
			buf := make([]byte, largeBufferSize)
			return &buf
		},
	},
}

// GetBuffer returns a buffer of exactly the requested length
func GetBuffer(size int) []byte {
	switch {
	case size <= smallBufferSize:
		buf := globalBufferPool.small.Get().(*[]byte)
		return (*buf)[:size]
	case size <= mediumBufferSize:
		buf := globalBufferPool.medium.Get().(*[]byte)
		return (*buf)[:size]
	case size <= largeBufferSize:
		buf := globalBufferPool.large.Get().(*[]byte)
		return (*buf)[:size]
	default:
		// Larger than any tier, let GC handle it
		return make([]byte, size)
	}
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf []byte) {
	switch cap(buf) {
	case smallBufferSize:
		full := buf[:smallBufferSize]
		globalBufferPool.small.Put(&full)
	case mediumBufferSize:
		full := buf[:mediumBufferSize]
		globalBufferPool.medium.Put(&full)
	case largeBufferSize:
		full := buf[:largeBufferSize]
		globalBufferPool.large.Put(&full)
	}
}

// BufferedReader owns one pooled receive buffer for a connection
type BufferedReader struct {
	buf []byte
}

// NewBufferedReader takes a buffer of the given size from the pool
func NewBufferedReader(size int) *BufferedReader {
	return &BufferedReader{
		buf: GetBuffer(size),
	}
}

// Close returns the buffer to the pool
func (br *BufferedReader) Close() {
	if br.buf != nil {
		PutBuffer(br.buf)
		br.buf = nil
	}
}

// Buffer returns the internal buffer
func (br *BufferedReader) Buffer() []byte {
	return br.buf
}
