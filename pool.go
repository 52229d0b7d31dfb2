package opruntime

import (
	"strings"
	"sync"
)

// builderPool recycles strings.Builder scratch buffers used to render a
// Path's key and display form, a hot path for every Client registry
// lookup. Grounded on the teacher's PoolManager (pool_manager.go), which
// pools short-lived per-call scratch objects the same way; narrowed here
// to a single pooled type since a Builder's entire lifetime is contained
// within the function that borrows it, unlike PoolManager's longer-lived
// ResolveCtx/ExecutionCtx values.
var builderPool = sync.Pool{
	New: func() any { return &strings.Builder{} },
}

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	builderPool.Put(b)
}
