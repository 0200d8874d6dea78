package model

// Buffer is a fixed-capacity block of float64 scratch memory handed to an
// execution unit together with a task.
//
// A Buffer handle has a single owner. Ownership changes hands with Move: the
// returned handle becomes the only valid one and the receiver is invalidated,
// after which Floats returns nil and Valid reports false. Slices obtained from
// Floats must not be retained past a Move.
type Buffer struct {
	id   uint64
	data []float64
}

// NewBuffer allocates a zeroed buffer with the supplied capacity.
func NewBuffer(id uint64, capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{id: id, data: make([]float64, capacity)}
}

// ID returns the allocation id; it survives moves so a block can be traced
// across tasks.
func (b *Buffer) ID() uint64 {
	if b == nil {
		return 0
	}
	return b.id
}

// Floats returns the backing storage or nil when the handle was moved away.
func (b *Buffer) Floats() []float64 {
	if b == nil {
		return nil
	}
	return b.data
}

// Cap returns the element capacity, 0 for an invalid handle.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Valid reports whether this handle still owns its storage.
func (b *Buffer) Valid() bool {
	return b != nil && b.data != nil
}

// Move transfers ownership to a new handle and invalidates b.
// Moving a nil or already moved handle returns nil.
func (b *Buffer) Move() *Buffer {
	if !b.Valid() {
		return nil
	}
	moved := &Buffer{id: b.id, data: b.data}
	b.data = nil
	return moved
}

// Clear zeroes every element.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	clear(b.data)
}

// IsClear reports whether every element is zero.
func (b *Buffer) IsClear() bool {
	for _, v := range b.Floats() {
		if v != 0 {
			return false
		}
	}
	return true
}
