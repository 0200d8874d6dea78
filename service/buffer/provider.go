package buffer

import (
	"sync/atomic"

	"github.com/viant/scorepool/model"
)

// DefaultCapacity fits the largest scoring chunk a kernel is expected to write.
const DefaultCapacity = 100000

// Provider allocates and clears scratch memory.
type Provider interface {
	// Create allocates a zeroed buffer holding capacity elements.
	Create(capacity int) *model.Buffer
	// Reset clears buffer contents in place.
	Reset(buffer *model.Buffer)
}

// FloatProvider allocates buffers on the Go heap.
type FloatProvider struct {
	seq atomic.Uint64
}

// NewFloatProvider creates a heap backed provider.
func NewFloatProvider() *FloatProvider {
	return &FloatProvider{}
}

// Create implements Provider.
func (p *FloatProvider) Create(capacity int) *model.Buffer {
	return model.NewBuffer(p.seq.Add(1), capacity)
}

// Reset implements Provider.
func (p *FloatProvider) Reset(buffer *model.Buffer) {
	buffer.Clear()
}
