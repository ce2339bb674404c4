package syndication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestTelegramMessenger_DisabledWithoutToken(t *testing.T) {
	m := NewTelegramMessenger("", testLogger())

	_, err := m.SendText(context.Background(), "@cars", "hi")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, m.Delete(context.Background(), "@cars", "1"), ErrDisabled)
}

func TestTelegramMessenger_BuildsBotOnce(t *testing.T) {
	var built atomic.Int32
	factory := func(string) (*tele.Bot, error) {
		built.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &tele.Bot{}, nil
	}
	m := NewTelegramMessengerWithFactory("token", factory, testLogger())

	var wg sync.WaitGroup
	bots := make([]*tele.Bot, 16)
	for i := range bots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := m.client()
			assert.NoError(t, err)
			bots[i] = b
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, b := range bots {
		assert.Same(t, bots[0], b)
	}
}

func TestTelegramMessenger_RetriesFailedInit(t *testing.T) {
	calls := 0
	factory := func(string) (*tele.Bot, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unauthorized")
		}
		return &tele.Bot{}, nil
	}
	m := NewTelegramMessengerWithFactory("token", factory, testLogger())

	_, err := m.client()
	require.Error(t, err)
	b, err := m.client()
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestTelegramMessenger_ResolvesNumericChannelsWithoutLookup(t *testing.T) {
	m := NewTelegramMessengerWithFactory("token", func(string) (*tele.Bot, error) { return &tele.Bot{}, nil }, testLogger())
	bot, err := m.client()
	require.NoError(t, err)

	id, err := m.resolve(bot, "-1001234567890")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)

	m.remember("@cars", 42)
	id, err = m.resolve(bot, "@cars")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestIgnoreNotModified(t *testing.T) {
	assert.NoError(t, ignoreNotModified(errors.New("telegram: Bad Request: message is not modified (400)")))
	assert.Error(t, ignoreNotModified(errors.New("telegram: chat not found (400)")))
	assert.NoError(t, ignoreNotModified(nil))
}
