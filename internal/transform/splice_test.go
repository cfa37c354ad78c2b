package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferInsertAtSinglePoint(t *testing.T) {
	b := NewBuffer("function foo() {}")
	b.Insert(len("function foo() {"), " X")
	assert.Equal(t, "function foo() { X}", b.Apply())
}

func TestBufferReplaceRange(t *testing.T) {
	b := NewBuffer("hello world")
	b.Replace(6, 11, "there")
	assert.Equal(t, "hello there", b.Apply())
}

func TestBufferAppliesDescendingOffsetOrderRegardlessOfInsertionOrder(t *testing.T) {
	b := NewBuffer("abcdef")
	b.Insert(0, "[0]")
	b.Insert(4, "[4]")
	b.Insert(2, "[2]")
	assert.Equal(t, "[0]ab[2]cd[4]ef", b.Apply())
}

func TestBufferWithNoEditsReturnsOriginal(t *testing.T) {
	b := NewBuffer("unchanged")
	assert.Equal(t, "unchanged", b.Apply())
}
