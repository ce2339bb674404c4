package syndication

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"avto-sawda/pkg/logger"

	"golang.org/x/sync/singleflight"
	tele "gopkg.in/telebot.v3"
)

type BotFactory func(token string) (*tele.Bot, error)

func defaultBotFactory(token string) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
}

// TelegramMessenger posts into Telegram channels. The bot client is created on first
// use and shared afterwards; concurrent first callers wait on the same initialization.
type TelegramMessenger struct {
	token  string
	newBot BotFactory
	logger *logger.Logger

	init singleflight.Group

	mu    sync.RWMutex
	bot   *tele.Bot
	chats map[string]int64
}

func NewTelegramMessenger(token string, log *logger.Logger) *TelegramMessenger {
	return NewTelegramMessengerWithFactory(token, defaultBotFactory, log)
}

func NewTelegramMessengerWithFactory(token string, factory BotFactory, log *logger.Logger) *TelegramMessenger {
	return &TelegramMessenger{
		token:  token,
		newBot: factory,
		logger: log,
		chats:  make(map[string]int64),
	}
}

func (t *TelegramMessenger) client() (*tele.Bot, error) {
	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()
	if bot != nil {
		return bot, nil
	}
	if t.token == "" {
		return nil, ErrDisabled
	}

	v, err, _ := t.init.Do("bot", func() (interface{}, error) {
		t.mu.RLock()
		existing := t.bot
		t.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		b, err := t.newBot(t.token)
		if err != nil {
			return nil, fmt.Errorf("failed to init telegram bot: %w", err)
		}

		t.mu.Lock()
		t.bot = b
		t.mu.Unlock()
		t.logger.Info("Telegram bot initialized")
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tele.Bot), nil
}

type channelRecipient string

func (c channelRecipient) Recipient() string { return string(c) }

func (t *TelegramMessenger) send(ctx context.Context, channel string, what interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	bot, err := t.client()
	if err != nil {
		return "", err
	}

	msg, err := bot.Send(channelRecipient(channel), what, tele.ModeHTML)
	if err != nil {
		return "", err
	}
	if msg.Chat != nil {
		t.remember(channel, msg.Chat.ID)
	}
	return strconv.Itoa(msg.ID), nil
}

func (t *TelegramMessenger) SendText(ctx context.Context, channel, text string) (string, error) {
	return t.send(ctx, channel, text)
}

func (t *TelegramMessenger) SendPhoto(ctx context.Context, channel, photoURL, caption string) (string, error) {
	return t.send(ctx, channel, &tele.Photo{File: tele.FromURL(photoURL), Caption: caption})
}

func (t *TelegramMessenger) EditCaption(ctx context.Context, channel, postID, caption string) error {
	bot, stored, err := t.stored(ctx, channel, postID)
	if err != nil {
		return err
	}
	_, err = bot.EditCaption(stored, caption, tele.ModeHTML)
	return ignoreNotModified(err)
}

func (t *TelegramMessenger) EditText(ctx context.Context, channel, postID, text string) error {
	bot, stored, err := t.stored(ctx, channel, postID)
	if err != nil {
		return err
	}
	_, err = bot.Edit(stored, text, tele.ModeHTML)
	return ignoreNotModified(err)
}

func (t *TelegramMessenger) Delete(ctx context.Context, channel, postID string) error {
	bot, stored, err := t.stored(ctx, channel, postID)
	if err != nil {
		return err
	}
	return bot.Delete(stored)
}

func (t *TelegramMessenger) stored(ctx context.Context, channel, postID string) (*tele.Bot, tele.StoredMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, tele.StoredMessage{}, err
	}
	bot, err := t.client()
	if err != nil {
		return nil, tele.StoredMessage{}, err
	}
	chatID, err := t.resolve(bot, channel)
	if err != nil {
		return nil, tele.StoredMessage{}, err
	}
	return bot, tele.StoredMessage{MessageID: postID, ChatID: chatID}, nil
}

// resolve maps a channel to its numeric chat id. Public "@name" channels are looked up
// once and cached.
func (t *TelegramMessenger) resolve(bot *tele.Bot, channel string) (int64, error) {
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return id, nil
	}

	t.mu.RLock()
	id, ok := t.chats[channel]
	t.mu.RUnlock()
	if ok {
		return id, nil
	}

	chat, err := bot.ChatByUsername(channel)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve channel %s: %w", channel, err)
	}
	t.remember(channel, chat.ID)
	return chat.ID, nil
}

func (t *TelegramMessenger) remember(channel string, chatID int64) {
	t.mu.Lock()
	t.chats[channel] = chatID
	t.mu.Unlock()
}

func ignoreNotModified(err error) error {
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}
