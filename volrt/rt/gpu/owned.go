package gpu

type releasable interface {
	Release()
}

// Owned wraps a GPU handle so that it is released exactly once, no matter how
// many teardown paths reach it.
type Owned[T releasable] struct {
	handle   T
	released bool
}

func Own[T releasable](handle T) *Owned[T] {
	return &Owned[T]{handle: handle}
}

// Get returns the handle. It must not be used after Release.
func (o *Owned[T]) Get() T {
	return o.handle
}

func (o *Owned[T]) Release() {
	if o == nil || o.released {
		return
	}
	o.released = true
	o.handle.Release()
	var zero T
	o.handle = zero
}

func (o *Owned[T]) Released() bool {
	return o == nil || o.released
}

// releaseAll releases in order, skipping nil entries.
func releaseAll(rs ...releasable) {
	for _, r := range rs {
		if r != nil {
			r.Release()
		}
	}
}
