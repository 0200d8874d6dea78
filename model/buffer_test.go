package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Move(t *testing.T) {
	src := NewBuffer(7, 4)
	src.Floats()[1] = 3.5

	moved := src.Move()
	require.NotNil(t, moved)
	assert.False(t, src.Valid())
	assert.Nil(t, src.Floats())
	assert.Equal(t, 0, src.Cap())
	assert.True(t, moved.Valid())
	assert.Equal(t, uint64(7), moved.ID())
	assert.Equal(t, 3.5, moved.Floats()[1])

	assert.Nil(t, src.Move(), "moving an invalidated handle yields nothing")
	var nilBuffer *Buffer
	assert.Nil(t, nilBuffer.Move())
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(1, 8)
	assert.True(t, b.IsClear())
	b.Floats()[3] = 1
	b.Floats()[7] = -2
	assert.False(t, b.IsClear())
	b.Clear()
	assert.True(t, b.IsClear())
	assert.Equal(t, 8, b.Cap())
}

func TestTask_AttachDetach(t *testing.T) {
	task := NewTask("t1", "payload")
	b := NewBuffer(2, 16)

	task.Attach(b)
	assert.False(t, b.Valid(), "submitter handle is invalid after attach")
	require.True(t, task.Buffer.Valid())

	out := task.Detach()
	require.NotNil(t, out)
	assert.False(t, task.Buffer.Valid())
	assert.Equal(t, 16, out.Cap())
	assert.Nil(t, task.Detach())
}
