// Package syndication mirrors for-sale listings into messaging channels and keeps
// the per-listing registry of channel posts consistent with the remote side.
package syndication

import (
	"context"
	"errors"
)

// ErrDisabled is returned by a Messenger that has no credentials configured.
var ErrDisabled = errors.New("messenger disabled")

// Messenger is the remote side of syndication. Channels and post ids are opaque strings.
type Messenger interface {
	SendText(ctx context.Context, channel, text string) (string, error)
	SendPhoto(ctx context.Context, channel, photoURL, caption string) (string, error)
	EditCaption(ctx context.Context, channel, postID, caption string) error
	EditText(ctx context.Context, channel, postID, text string) error
	Delete(ctx context.Context, channel, postID string) error
}
