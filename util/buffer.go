package util

import (
	"io"
	"sync"
)

// BufPool hands out read buffers of one fixed size.
type BufPool struct {
	size int
	pool sync.Pool
}

// NewBufPool returns a pool of size-byte buffers.
func NewBufPool(size int) *BufPool {
	p := &BufPool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size is the length of every buffer p hands out.
func (p *BufPool) Size() int { return p.size }

// Get returns a buffer of Size bytes.  Hand it back with Put.
func (p *BufPool) Get() *[]byte { return p.pool.Get().(*[]byte) }

// Put recycles buf.  nil and foreign-sized buffers are dropped.
func (p *BufPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		return
	}
	p.pool.Put(buf)
}

// CountingWriter forwards writes to W and reports each successful
// byte count to Count.
type CountingWriter struct {
	W     io.Writer
	Count func(n int64)
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	if n > 0 && c.Count != nil {
		c.Count(int64(n))
	}
	return n, err
}
