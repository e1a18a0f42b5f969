package cbor

import "sync"

type Option struct {
	f func(*Options)
}
type Options struct {
	// MaxDepth bounds the nesting of arrays, maps and tags on decode.
	MaxDepth int
	// BufferSize is the initial capacity of encode buffers.
	BufferSize int
}

func NewOptions(opts ...Option) *Options {
	var options = &Options{
		MaxDepth:   4096,
		BufferSize: 256,
	}
	for _, o := range opts {
		o.f(options)
	}
	return options
}

func WithMaxDepth(depth int) Option {
	return Option{f: func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}}
}
func WithBufferSize(size int) Option {
	return Option{f: func(o *Options) {
		if size > 0 {
			o.BufferSize = size
		}
	}}
}

// defaultOptions is shared read-only by every call made without options.
var defaultOptions = sync.OnceValue(func() *Options {
	return NewOptions()
})

func optionsOf(opts []Option) *Options {
	if len(opts) == 0 {
		return defaultOptions()
	}
	return NewOptions(opts...)
}
