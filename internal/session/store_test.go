package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, titles ...string) (*Store, []Session) {
	t.Helper()
	store := NewStore()
	var created []Session
	for _, title := range titles {
		sess := NewSession(title, time.Now())
		store.InsertFront(sess)
		created = append(created, sess)
	}
	return store, created
}

func TestStore_InsertFrontKeepsNewestFirst(t *testing.T) {
	store, _ := seedStore(t, "first", "second", "third")

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestStore_Find(t *testing.T) {
	store, created := seedStore(t, "a", "b")

	got, ok := store.Find(created[0].ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)

	_, ok = store.Find("missing")
	assert.False(t, ok)
}

func TestStore_UpdateKeepsOrderAndID(t *testing.T) {
	store, created := seedStore(t, "a", "b", "c")

	ok := store.Update(created[1].ID, func(s Session) Session {
		s.ID = "tampered"
		s.Messages = append(s.Messages, NewMessage(RoleUser, "hi", time.Now()))
		return s
	})
	require.True(t, ok)

	list := store.List()
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].Title, list[1].Title, list[2].Title})
	assert.Equal(t, created[1].ID, list[1].ID)
	assert.Len(t, list[1].Messages, 1)

	assert.False(t, store.Update("missing", func(s Session) Session { return s }))
}

func TestStore_UpdateMessage(t *testing.T) {
	store, created := seedStore(t, "a")
	msg := NewMessage(RoleModel, "", time.Now())
	store.Update(created[0].ID, func(s Session) Session {
		s.Messages = append(s.Messages, msg)
		return s
	})

	ok := store.UpdateMessage(created[0].ID, msg.ID, func(m Message) Message {
		m.Content = "filled"
		return m
	})
	require.True(t, ok)

	got, _ := store.Find(created[0].ID)
	assert.Equal(t, "filled", got.Messages[0].Content)

	assert.False(t, store.UpdateMessage(created[0].ID, "missing", func(m Message) Message { return m }))
	assert.False(t, store.UpdateMessage("missing", msg.ID, func(m Message) Message { return m }))
}

func TestStore_Remove(t *testing.T) {
	store, created := seedStore(t, "a", "b", "c")

	require.True(t, store.Remove(created[1].ID))
	assert.False(t, store.Remove(created[1].ID))
	assert.False(t, store.Contains(created[1].ID))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Title)
	assert.Equal(t, "a", list[1].Title)
}

func TestStore_ListIsSnapshot(t *testing.T) {
	store, created := seedStore(t, "a")
	list := store.List()
	list[0].Title = "mutated"

	got, _ := store.Find(created[0].ID)
	assert.Equal(t, "a", got.Title)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := NewSession("x", time.Now())
			store.InsertFront(sess)
			store.Update(sess.ID, func(s Session) Session {
				s.Messages = append(s.Messages, NewMessage(RoleUser, "y", time.Now()))
				return s
			})
			_ = store.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}
