package cache

import "context"

type Recorder interface {
	CacheHit()
	CacheMiss()
}

type instrumented struct {
	Cache
	recorder Recorder
}

// WithMetrics reports every Get as a hit or a miss to recorder.
func WithMetrics(c Cache, recorder Recorder) Cache {
	return &instrumented{Cache: c, recorder: recorder}
}

func (i *instrumented) Get(ctx context.Context, key string) (Entry, bool, error) {
	entry, ok, err := i.Cache.Get(ctx, key)
	if ok {
		i.recorder.CacheHit()
	} else {
		i.recorder.CacheMiss()
	}
	return entry, ok, err
}
