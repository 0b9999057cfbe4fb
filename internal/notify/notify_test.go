package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  []Notification
	fail bool
}

func (r *recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	if r.fail {
		return errors.New("gateway down")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestDispatcherDelivers(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, d.Notify(ctx, Notification{UID: "a", Title: "hi"}))
	require.NoError(t, d.Notify(ctx, Notification{UID: "b", Title: "hi"}))

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherSurvivesBackendFailure(t *testing.T) {
	rec := &recorder{fail: true}
	d := NewDispatcher(rec, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Notify(ctx, Notification{UID: "a"}))
	}
	require.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(&recorder{}, 1)
	ctx := context.Background()

	require.NoError(t, d.Notify(ctx, Notification{UID: "a"}))
	assert.ErrorIs(t, d.Notify(ctx, Notification{UID: "b"}), ErrQueueFull)
}

func TestRedisKeysAndEncoding(t *testing.T) {
	assert.Equal(t, "notifications:u1", ChannelKey("u1"))
	assert.Equal(t, "notifications:inbox:u1", InboxKey("u1"))

	payload, err := encode(Notification{UID: "u1", Title: "Invite", Body: "join", Data: map[string]string{"game_id": "g"}})
	require.NoError(t, err)

	var decoded Notification
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "g", decoded.Data["game_id"])
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), Notification{UID: "a", Body: "b"}))
}
