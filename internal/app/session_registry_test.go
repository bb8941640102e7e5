package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

func record(title string) domain.DownloadRecord {
	return domain.NewDownloadRecord(domain.MediaItem{Title: title}, "/music/"+title+".mp3", domain.Quality192)
}

func TestSessionRegistry_MostRecentFirst(t *testing.T) {
	r := NewSessionRegistry()
	r.Append(record("one"))
	r.Append(record("two"))
	r.Append(record("three"))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "one", list[2].Title)

	first, err := r.At(0)
	require.NoError(t, err)
	assert.Equal(t, "three", first.Title)
}

func TestSessionRegistry_RemoveAt(t *testing.T) {
	r := NewSessionRegistry()
	r.Append(record("one"))
	r.Append(record("two"))
	r.Append(record("three"))

	removed, err := r.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "two", removed.Title)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "one", list[1].Title)

	_, err = r.RemoveAt(2)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	_, err = r.RemoveAt(-1)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSessionRegistry_Clear(t *testing.T) {
	r := NewSessionRegistry()
	r.Append(record("one"))
	r.Append(record("two"))

	assert.Equal(t, 2, r.Clear())
	assert.Zero(t, r.Len())
	assert.Empty(t, r.List())
}

func TestSessionRegistry_ListIsACopy(t *testing.T) {
	r := NewSessionRegistry()
	r.Append(record("one"))

	list := r.List()
	list[0].Title = "changed"

	first, err := r.At(0)
	require.NoError(t, err)
	assert.Equal(t, "one", first.Title)
}

func TestSessionRegistry_ConcurrentAppend(t *testing.T) {
	r := NewSessionRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Append(record("x"))
			r.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
