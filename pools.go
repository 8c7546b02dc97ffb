package brotli

import (
	"strings"
	"sync"

	"github.com/chronos-tachyon/assert"
)

var sbPool = sync.Pool{
	New: func() interface{} {
		sb := new(strings.Builder)
		sb.Grow(256)
		return sb
	},
}

func takeStringsBuilder() *strings.Builder {
	return sbPool.Get().(*strings.Builder)
}

func giveStringsBuilder(sb *strings.Builder) {
	assert.NotNil(&sb)
	sb.Reset()
	sbPool.Put(sb)
}

var commandPool = sync.Pool{
	New: func() interface{} {
		ptr := new([]command)
		*ptr = make([]command, 0, 1024)
		return ptr
	},
}

func takeCommands() *[]command {
	return commandPool.Get().(*[]command)
}

func giveCommands(ptr *[]command) {
	assert.NotNil(&ptr)
	assert.NotNil(ptr)
	*ptr = (*ptr)[:0]
	commandPool.Put(ptr)
}
