package syndication

import (
	"context"
	"errors"
	"fmt"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/metrics"
	"avto-sawda/services/listing/internal/entity"
)

// RegistryStore persists the channel post registry of a listing.
type RegistryStore interface {
	SaveRegistry(ctx context.Context, listingID string, registry entity.Registry) error
}

const (
	resultOK      = "ok"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

// Pipeline keeps listings and their channel posts in step. Remote and store failures
// are logged and counted before they reach the caller.
type Pipeline struct {
	messenger Messenger
	store     RegistryStore
	opts      RenderOptions
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewPipeline(messenger Messenger, store RegistryStore, opts RenderOptions, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	return &Pipeline{
		messenger: messenger,
		store:     store,
		opts:      opts,
		metrics:   m,
		logger:    log,
	}
}

// Post publishes the listing to channel unless it already has a post there, in which
// case the existing post id is returned. l.TelegramPosts is updated in place.
// A messenger without credentials yields an error wrapping ErrDisabled.
func (p *Pipeline) Post(ctx context.Context, l *entity.Listing, channel string) (string, error) {
	if existing, ok := l.TelegramPosts.Find(channel); ok {
		p.metrics.Syndication("post", resultSkipped)
		return existing.PostID, nil
	}

	text := Render(l, p.opts)
	photo := PhotoURL(l, p.opts.MediaBaseURL)

	var (
		postID string
		err    error
	)
	if photo != "" {
		postID, err = p.messenger.SendPhoto(ctx, channel, photo, text)
	} else {
		postID, err = p.messenger.SendText(ctx, channel, text)
	}
	if err != nil {
		p.fail("post", l.ID, channel, err)
		return "", err
	}

	l.TelegramPosts = l.TelegramPosts.With(entity.ChannelPost{ChannelID: channel, PostID: postID, Media: photo != ""})
	if err := p.store.SaveRegistry(ctx, l.ID, l.TelegramPosts); err != nil {
		// The remote post exists but is not recorded; roll it back so a retry does not duplicate it.
		p.logger.Error("Failed to record post %s of listing %s in %s: %v", postID, l.ID, channel, err)
		if derr := p.messenger.Delete(ctx, channel, postID); derr != nil {
			p.logger.Warn("Failed to roll back post %s in %s: %v", postID, channel, derr)
		}
		l.TelegramPosts = l.TelegramPosts.Without(channel)
		p.metrics.Syndication("post", resultFailed)
		return "", fmt.Errorf("failed to record post %s: %w", postID, err)
	}

	p.metrics.Syndication("post", resultOK)
	p.logger.Info("Listing %s posted to %s as %s", l.ID, channel, postID)
	return postID, nil
}

// Update re-renders the existing post in channel. It is a no-op when there is none.
func (p *Pipeline) Update(ctx context.Context, l *entity.Listing, channel string) bool {
	post, ok := l.TelegramPosts.Find(channel)
	if !ok {
		p.metrics.Syndication("update", resultSkipped)
		return false
	}

	text := Render(l, p.opts)
	var err error
	if post.Media {
		err = p.messenger.EditCaption(ctx, channel, post.PostID, text)
	} else {
		err = p.messenger.EditText(ctx, channel, post.PostID, text)
	}
	if err != nil {
		p.fail("update", l.ID, channel, err)
		return false
	}

	p.metrics.Syndication("update", resultOK)
	return true
}

// Delete removes the post in channel and drops its registry entry whatever the
// remote outcome. It reports whether the remote deletion succeeded.
func (p *Pipeline) Delete(ctx context.Context, l *entity.Listing, channel string) bool {
	post, ok := l.TelegramPosts.Find(channel)
	if !ok {
		p.metrics.Syndication("delete", resultSkipped)
		return false
	}

	err := p.messenger.Delete(ctx, channel, post.PostID)
	if err != nil {
		p.fail("delete", l.ID, channel, err)
	} else {
		p.metrics.Syndication("delete", resultOK)
	}

	l.TelegramPosts = l.TelegramPosts.Without(channel)
	if serr := p.store.SaveRegistry(ctx, l.ID, l.TelegramPosts); serr != nil && !apperr.Is(serr, apperr.KindNotFound) {
		p.logger.Error("Failed to drop post %s of listing %s from registry: %v", post.PostID, l.ID, serr)
	}
	return err == nil
}

func (p *Pipeline) fail(action, listingID, channel string, err error) {
	result := resultFailed
	if errors.Is(err, ErrDisabled) {
		result = resultSkipped
		p.logger.Debug("Syndication %s of listing %s to %s skipped: %v", action, listingID, channel, err)
	} else {
		p.logger.Error("Syndication %s of listing %s to %s failed: %v", action, listingID, channel, err)
	}
	p.metrics.Syndication(action, result)
}
