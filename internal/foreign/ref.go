package foreign

// Ref is an ownership-tagged reference to a foreign handle. It is the only place
// where reference counts are touched: Borrow and Clone acquire, Close releases,
// Adopt takes over a reference the caller already holds.
//
// The zero Ref holds nothing.
type Ref struct {
	rt Runtime
	h  Handle
}

// Borrow returns a Ref over a handle the caller does not give away. One reference is
// acquired for the Ref; the caller's own reference is untouched.
func Borrow(rt Runtime, h Handle) Ref {
	if h == 0 {
		return Ref{}
	}
	rt.Acquire(h)
	return Ref{rt: rt, h: h}
}

// Adopt returns a Ref that takes over a reference the caller already holds
// (for example the one returned by Runtime.Allocate). Nothing is acquired.
func Adopt(rt Runtime, h Handle) Ref {
	if h == 0 {
		return Ref{}
	}
	return Ref{rt: rt, h: h}
}

// Handle returns the referenced handle, or 0.
func (r Ref) Handle() Handle {
	return r.h
}

// Runtime returns the owning runtime, or nil for the zero Ref.
func (r Ref) Runtime() Runtime {
	return r.rt
}

// Valid reports whether the Ref holds a reference.
func (r Ref) Valid() bool {
	return r.h != 0
}

// Clone returns a second Ref to the same handle, acquiring one reference for it.
func (r Ref) Clone() Ref {
	if !r.Valid() {
		return Ref{}
	}
	r.rt.Acquire(r.h)
	return r
}

// Export returns the handle with one extra reference owned by the receiver, who
// becomes responsible for releasing it.
func (r Ref) Export() Handle {
	if !r.Valid() {
		return 0
	}
	r.rt.Acquire(r.h)
	return r.h
}

// Close releases the reference exactly once. Closing twice is a no-op.
func (r *Ref) Close() {
	if !r.Valid() {
		return
	}
	r.rt.Release(r.h)
	*r = Ref{}
}

// Swap exchanges the references held by r and other.
func (r *Ref) Swap(other *Ref) {
	*r, *other = *other, *r
}
