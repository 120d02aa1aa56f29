package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessages(t *testing.T) (*MessageStore, *DB) {
	t.Helper()
	db, _ := openTestDB(t)
	s, err := NewMessageStore(context.Background(), db)
	require.NoError(t, err)
	return s, db
}

func TestSubmitMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMessages(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	msg, err := s.Submit(ctx, " Ada ", "ada@example.com", "Hello there")
	require.NoError(t, err)
	assert.Contains(t, msg.ID, "msg-")
	assert.Equal(t, "Ada", msg.Name)
	assert.Equal(t, fixed, msg.Timestamp)
	assert.False(t, msg.Read)

	assert.Equal(t, []Message{msg}, s.List())
	assert.Equal(t, 1, s.Unread())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMessages(t)

	_, err := s.Submit(ctx, "", "a@b.com", "hi")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name"}, verr.Fields)
	assert.Empty(t, s.List())

	_, err = s.Submit(ctx, "<b></b>", "   ", "")
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"name", "email", "message"}, verr.Fields)
	assert.Empty(t, s.List())
}

func TestSubmitStripsMarkup(t *testing.T) {
	s, _ := newTestMessages(t)

	msg, err := s.Submit(context.Background(), "Eve", "eve@example.com", `hi <script>alert(1)</script>there`)
	require.NoError(t, err)
	assert.NotContains(t, msg.Message, "<script>")
}

func TestSubmitKeepsPlainText(t *testing.T) {
	s, _ := newTestMessages(t)

	msg, err := s.Submit(context.Background(), "Tom & Jerry", "o'neil@example.com", `Price < 5 and "quoted"`)
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry", msg.Name)
	assert.Equal(t, "o'neil@example.com", msg.Email)
	assert.Equal(t, `Price < 5 and "quoted"`, msg.Message)
	assert.Equal(t, msg, s.List()[0])
}

func TestSubmitStripsEscapedMarkup(t *testing.T) {
	s, _ := newTestMessages(t)

	msg, err := s.Submit(context.Background(), "Eve", "eve@example.com", "&lt;b&gt;hi&lt;/b&gt; there")
	require.NoError(t, err)
	assert.Equal(t, "hi there", msg.Message)
}

func TestSubmitMeasuresPlainLength(t *testing.T) {
	s, _ := newTestMessages(t)

	_, err := s.Submit(context.Background(), "Ann", "ann@example.com", strings.Repeat("&", 5000))
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), "Ann", "ann@example.com", strings.Repeat("a", 5001))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"message"}, verr.Fields)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMessages(t)

	msg, err := s.Submit(ctx, "Ada", "ada@example.com", "hi")
	require.NoError(t, err)

	require.NoError(t, s.MarkRead(ctx, msg.ID))
	require.NoError(t, s.MarkRead(ctx, msg.ID))
	got := s.List()
	require.Len(t, got, 1)
	assert.True(t, got[0].Read)
	assert.Equal(t, msg.Message, got[0].Message)
	assert.Equal(t, 0, s.Unread())

	assert.ErrorIs(t, s.MarkRead(ctx, "msg-missing"), ErrNotFound)
}

func TestDeleteMessageIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMessages(t)

	a, err := s.Submit(ctx, "A", "a@example.com", "one")
	require.NoError(t, err)
	b, err := s.Submit(ctx, "B", "b@example.com", "two")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, a.ID))
	require.NoError(t, s.Delete(ctx, a.ID))
	require.NoError(t, s.Delete(ctx, "never-existed"))
	assert.Equal(t, []Message{b}, s.List())
}

func TestMessagesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	s, db := newTestMessages(t)

	msg, err := s.Submit(ctx, "Ada", "ada@example.com", "persist me")
	require.NoError(t, err)
	require.NoError(t, s.MarkRead(ctx, msg.ID))

	again, err := NewMessageStore(ctx, db)
	require.NoError(t, err)
	got := again.List()
	require.Len(t, got, 1)
	assert.Equal(t, msg.ID, got[0].ID)
	assert.True(t, got[0].Read)
	assert.True(t, msg.Timestamp.Equal(got[0].Timestamp))
}

func TestConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMessages(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Submit(ctx, "Ada", "ada@example.com", "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs := s.List()
	require.Len(t, msgs, n)
	ids := make(map[string]struct{}, n)
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	assert.Len(t, ids, n)
}
