package convolution

import "sync"

// Pool lets repeated distributed runs reuse row block buffers to reduce GC
// pressure. A nil *Pool is valid and simply allocates.
type Pool struct {
	blocks sync.Pool // *[]uint8
}

// Get returns a byte slice of length n. Its contents are unspecified; the
// engine fully overwrites every block it fills.
func (p *Pool) Get(n int) []uint8 {
	if p == nil {
		return make([]uint8, n)
	}
	if v := p.blocks.Get(); v != nil {
		buf := *v.(*[]uint8)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]uint8, n)
}

// Put hands a block back for reuse.
func (p *Pool) Put(buf []uint8) {
	if p == nil || buf == nil {
		return
	}
	p.blocks.Put(&buf)
}
