package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PreservesOrderWithoutBlocking(t *testing.T) {
	d := NewDispatcher()

	// Nobody reads yet; Post must not block
	for i := 1; i <= 1000; i++ {
		require.True(t, d.Post(Event{Type: EventProgress, Index: i}))
	}
	d.Close()

	var got []int
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-d.Events():
			if !ok {
				require.Len(t, got, 1000)
				for i, idx := range got {
					assert.Equal(t, i+1, idx)
				}
				return
			}
			got = append(got, e.Index)
		case <-timeout:
			t.Fatal("timed out draining dispatcher")
		}
	}
}

func TestDispatcher_PostAfterClose(t *testing.T) {
	d := NewDispatcher()
	d.Close()
	d.Close()

	assert.False(t, d.Post(Event{Type: EventProgress}))

	_, ok := <-d.Events()
	assert.False(t, ok)
}
