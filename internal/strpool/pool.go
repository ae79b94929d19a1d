package strpool

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func Get() *strings.Builder {
	return pool.Get().(*strings.Builder)
}

func Put(b *strings.Builder) {
	b.Reset()
	pool.Put(b)
}

// Build runs fn on a pooled builder and returns the built string.
func Build(fn func(b *strings.Builder)) string {
	b := Get()
	defer Put(b)

	fn(b)
	return b.String()
}
