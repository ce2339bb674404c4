package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"avto-sawda/pkg/metrics"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/syndication"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// postInterval keeps bulk posting under the channel flood limits.
const postInterval = 1500 * time.Millisecond

type poster interface {
	Post(ctx context.Context, l *entity.Listing, channel string) (string, error)
}

type syndicateReport struct {
	Posted, Failed, Skipped int
}

// syndicateAll posts every listing to each channel it is missing from, waiting
// on limiter before each remote call.
func syndicateAll(ctx context.Context, p poster, limiter *rate.Limiter, listings []*entity.Listing, channels []string, out io.Writer) (syndicateReport, error) {
	var rep syndicateReport
	for _, l := range listings {
		for _, ch := range channels {
			if _, ok := l.TelegramPosts.Find(ch); ok {
				rep.Skipped++
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return rep, err
			}
			postID, err := p.Post(ctx, l, ch)
			if errors.Is(err, syndication.ErrDisabled) {
				return rep, err
			}
			if err != nil {
				rep.Failed++
				fmt.Fprintf(out, "FAIL  %s %s %s -> %s\n", l.ID, l.Brand, l.Model, ch)
				continue
			}
			rep.Posted++
			l.TelegramPosts = l.TelegramPosts.With(entity.ChannelPost{ChannelID: ch, PostID: postID})
			fmt.Fprintf(out, "OK    %s %s %s -> %s #%s\n", l.ID, l.Brand, l.Model, ch, postID)
		}
	}
	return rep, nil
}

func newSyndicateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "syndicate",
		Short: "Post every for-sale listing that is missing from the configured channels",
		RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command) error {
			listings, err := e.listings.ListForSale(ctx, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				missing := 0
				for _, l := range listings {
					for _, ch := range e.cfg.TelegramChannels {
						if _, ok := l.TelegramPosts.Find(ch); !ok {
							missing++
						}
					}
				}
				fmt.Fprintf(out, "%d listings, %d posts missing across %v\n", len(listings), missing, e.cfg.TelegramChannels)
				return nil
			}

			messenger := syndication.NewTelegramMessenger(e.cfg.TelegramBotToken, e.log)
			pipeline := syndication.NewPipeline(messenger, e.listings, syndication.RenderOptions{
				FrontendURL:  e.cfg.FrontendURL,
				MediaBaseURL: e.cfg.MediaBaseURL,
			}, metrics.New("carsctl"), e.log)

			limiter := rate.NewLimiter(rate.Every(postInterval), 1)
			rep, err := syndicateAll(ctx, pipeline, limiter, listings, e.cfg.TelegramChannels, out)
			fmt.Fprintf(out, "posted %d, failed %d, already posted %d\n", rep.Posted, rep.Failed, rep.Skipped)
			return err
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count the missing posts")
	return cmd
}
