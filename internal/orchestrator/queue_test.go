package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleFetchQueue_DropsOldestOnOverflow(t *testing.T) {
	q := NewRuleFetchQueue(3)
	q.Enqueue("A")
	q.Enqueue("B")
	q.Enqueue("C")
	q.Enqueue("D")

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, int64(1), q.Drops())

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "B", first)
}

func TestRuleFetchQueue_NeverExceedsCapacity(t *testing.T) {
	q := NewRuleFetchQueue(5)
	for i := 0; i < 100; i++ {
		q.Enqueue("M")
		assert.LessOrEqual(t, q.Len(), 5)
	}
	assert.Equal(t, int64(95), q.Drops())
}

func TestRuleFetchQueue_DequeueFIFO(t *testing.T) {
	q := NewRuleFetchQueue(10)
	q.Enqueue("A")
	q.Enqueue("B")
	q.Enqueue("C")

	a, _ := q.Dequeue()
	b, _ := q.Dequeue()
	c, _ := q.Dequeue()
	assert.Equal(t, []string{"A", "B", "C"}, []string{a, b, c})
}

func TestRuleFetchQueue_CloseUnblocksDequeue(t *testing.T) {
	q := NewRuleFetchQueue(10)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()
	q.Close()
	assert.False(t, <-done)
}
