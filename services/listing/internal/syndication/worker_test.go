package syndication

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"avto-sawda/pkg/queue"
	"avto-sawda/services/listing/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	tasks []Task
}

func (d *recordingDispatcher) Enqueue(_ context.Context, task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *recordingDispatcher) queued() []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Task(nil), d.tasks...)
}

func newTestWorker(msg Messenger, store ListingStore, retry Dispatcher, channels ...string) *Worker {
	w := NewWorker(newTestPipeline(msg, store, nil), store, channels, retry, testLogger())
	w.SetRetryDelay(time.Millisecond)
	return w
}

func TestWorker_PostsToEveryChannel(t *testing.T) {
	msg := newFakeMessenger()
	store := newFakeStore(testListing("l1"))
	w := newTestWorker(msg, store, nil, "@a", "@b")

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))
	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))

	assert.Equal(t, []string{"text", "text"}, msg.ops())
	assert.Len(t, store.saved["l1"], 2)
}

func TestWorker_SkipsListingsNotForSale(t *testing.T) {
	l := testListing("l1")
	l.Status = entity.StatusSold
	msg := newFakeMessenger()
	w := newTestWorker(msg, newFakeStore(l), nil, "@a")

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))
	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskUpdate, ListingID: "l1"}))

	assert.Empty(t, msg.ops())
}

func TestWorker_MissingListingIsNotAnError(t *testing.T) {
	w := newTestWorker(newFakeMessenger(), newFakeStore(), nil, "@a")

	assert.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "gone"}))
}

func TestWorker_StoreErrorIsReturnedForRedelivery(t *testing.T) {
	store := newFakeStore(testListing("l1"))
	store.getErr = errors.New("connection refused")
	w := newTestWorker(newFakeMessenger(), store, nil, "@a")

	assert.Error(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))
}

func TestWorker_RetriesFailedPostWithBoundedAttempts(t *testing.T) {
	msg := newFakeMessenger()
	msg.failOn["text"] = errors.New("flood wait")
	retry := &recordingDispatcher{}
	w := newTestWorker(msg, newFakeStore(testListing("l1")), retry, "@a")

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))
	assert.Eventually(t, func() bool { return len(retry.queued()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, retry.queued()[0].Attempt)

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1", Attempt: MaxAttempts - 1}))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, retry.queued(), 1)
}

func TestWorker_DisabledMessengerIsNotRetried(t *testing.T) {
	retry := &recordingDispatcher{}
	w := newTestWorker(NewTelegramMessenger("", testLogger()), newFakeStore(testListing("l1")), retry, "@a", "@b")

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskPost, ListingID: "l1"}))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, retry.queued())
}

func TestWorker_UpdateEditsExistingPosts(t *testing.T) {
	l := testListing("l1")
	l.TelegramPosts = entity.Registry{{ChannelID: "@a", PostID: "7"}}
	msg := newFakeMessenger()
	w := newTestWorker(msg, newFakeStore(l), nil, "@a", "@b")

	require.NoError(t, w.Handle(context.Background(), Task{Kind: TaskUpdate, ListingID: "l1"}))

	assert.Equal(t, []call{{op: "editText", channel: "@a", arg: "7"}}, msg.calls)
}

func TestWorker_DeleteUsesCarriedRegistry(t *testing.T) {
	msg := newFakeMessenger()
	w := newTestWorker(msg, newFakeStore(), nil, "@a")

	err := w.Handle(context.Background(), Task{
		Kind:      TaskDelete,
		ListingID: "gone",
		Posts:     entity.Registry{{ChannelID: "@a", PostID: "1"}, {ChannelID: "@old", PostID: "2"}},
	})

	require.NoError(t, err)
	assert.Equal(t, []call{
		{op: "delete", channel: "@a", arg: "1"},
		{op: "delete", channel: "@old", arg: "2"},
	}, msg.calls)
}

func TestWorker_HandleMessage(t *testing.T) {
	msg := newFakeMessenger()
	w := newTestWorker(msg, newFakeStore(testListing("l1")), nil, "@a")

	body, err := json.Marshal(Task{Kind: TaskPost, ListingID: "l1"})
	require.NoError(t, err)
	assert.NoError(t, w.HandleMessage(context.Background(), body))
	assert.Equal(t, []string{"text"}, msg.ops())

	assert.ErrorIs(t, w.HandleMessage(context.Background(), []byte("{not json")), queue.ErrDrop)
}
