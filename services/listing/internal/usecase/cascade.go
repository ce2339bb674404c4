package usecase

import (
	"context"

	"avto-sawda/pkg/logger"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/repo/persistent"
	"avto-sawda/services/listing/internal/syndication"
)

// purge runs the cleanup that follows deleting listings: their ids leave every
// saved set, then their channel posts and stored images are removed best-effort.
// Only the saved-set purge can fail.
func purge(
	ctx context.Context,
	users persistent.UserRepository,
	tasks syndication.Dispatcher,
	objects ObjectRemover,
	log *logger.Logger,
	deleted []*entity.Listing,
) error {
	if len(deleted) == 0 {
		return nil
	}

	ids := make([]string, 0, len(deleted))
	for _, l := range deleted {
		ids = append(ids, l.ID)
	}
	if err := users.PullSaved(ctx, ids...); err != nil {
		return err
	}

	for _, l := range deleted {
		if len(l.TelegramPosts) > 0 && tasks != nil {
			task := syndication.Task{Kind: syndication.TaskDelete, ListingID: l.ID, Posts: l.TelegramPosts}
			if err := tasks.Enqueue(ctx, task); err != nil {
				log.Error("Failed to enqueue post removal of listing %s: %v", l.ID, err)
			}
		}
		removeObjects(ctx, objects, log, append(append([]string(nil), l.Images...), l.Thumbnails...)...)
	}
	return nil
}

func removeObjects(ctx context.Context, objects ObjectRemover, log *logger.Logger, urls ...string) {
	if objects == nil {
		return
	}
	seen := make(map[string]bool, len(urls))
	for _, url := range urls {
		key, ok := objects.KeyFromURL(url)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		if err := objects.Delete(ctx, key); err != nil {
			log.Warn("Failed to remove object %s: %v", key, err)
		}
	}
}
