package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_PutAndGet(t *testing.T) {
	store := NewSessionStore(time.Minute)

	store.Put(10, 7, 3)
	sess, ok := store.Get(10)
	require.True(t, ok)
	assert.Equal(t, int64(7), sess.TaskID)
	assert.Equal(t, 3, sess.ExamNumber)

	// A new task replaces the pending one.
	store.Put(10, 8, 5)
	sess, ok = store.Get(10)
	require.True(t, ok)
	assert.Equal(t, int64(8), sess.TaskID)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Millisecond)

	store.Put(10, 7, 3)
	time.Sleep(5 * time.Millisecond)

	_, ok := store.Get(10)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(time.Minute)

	store.Put(10, 7, 3)
	store.Delete(10)

	_, ok := store.Get(10)
	assert.False(t, ok)
}

func TestSessionStore_Purge(t *testing.T) {
	store := NewSessionStore(time.Millisecond)
	store.Put(1, 7, 3)
	store.Put(2, 8, 4)
	time.Sleep(5 * time.Millisecond)
	store.Put(3, 9, 5)

	removed := store.Purge()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ZeroTTLFallsBack(t *testing.T) {
	store := NewSessionStore(0)
	store.Put(1, 7, 3)

	_, ok := store.Get(1)
	assert.True(t, ok)
}
