package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvalidator(t *testing.T, mr *miniredis.Miniredis) *RedisInvalidator {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewRedisInvalidator(client, "", slog.Default())
	t.Cleanup(func() { _ = inv.Close() })
	return inv
}

// recorder collects invalidated user IDs.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestRedisInvalidator_DeliversToOtherReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	// Both invalidators run in this process, as replicas sharing a host would.
	publisher := newTestInvalidator(t, mr)
	subscriber := newTestInvalidator(t, mr)
	require.NotEqual(t, publisher.origin, subscriber.origin)
	assert.NotEmpty(t, publisher.origin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go func() { _ = subscriber.Run(ctx, rec.record) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, publisher.Publish(ctx, "user-42"))

	assert.Eventually(t, func() bool {
		ids := rec.snapshot()
		return len(ids) == 1 && ids[0] == "user-42"
	}, time.Second, 10*time.Millisecond)
}

func TestRedisInvalidator_IgnoresOwnEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	inv := newTestInvalidator(t, mr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go func() { _ = inv.Run(ctx, rec.record) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, inv.Publish(ctx, "user-42"))
	mr.Publish(DefaultChannel, `not-json`)
	mr.Publish(DefaultChannel, `{"userId":"user-7","origin":"replica-z"}`)

	assert.Eventually(t, func() bool {
		ids := rec.snapshot()
		return len(ids) == 1 && ids[0] == "user-7"
	}, time.Second, 10*time.Millisecond)
}

func TestRedisInvalidator_PublishRejectsEmptyUser(t *testing.T) {
	mr := miniredis.RunT(t)
	inv := newTestInvalidator(t, mr)

	assert.Error(t, inv.Publish(context.Background(), ""))
}

func TestNewRedisInvalidatorWithURL(t *testing.T) {
	mr := miniredis.RunT(t)

	inv, err := NewRedisInvalidatorWithURL("redis://"+mr.Addr(), "custom", slog.Default())
	require.NoError(t, err)
	defer inv.Close()

	assert.Equal(t, "custom", inv.channel)
	assert.NoError(t, inv.Ping(context.Background()))

	_, err = NewRedisInvalidatorWithURL("://bad", "", slog.Default())
	assert.Error(t, err)
}
