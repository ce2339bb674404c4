package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"avto-sawda/pkg/middleware"
	"avto-sawda/pkg/queue"
	"avto-sawda/pkg/s3"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/syndication"
	"avto-sawda/services/listing/internal/usecase"

	"github.com/spf13/cobra"
)

const operatorID = "carsctl"

func printListings(out io.Writer, listings []*entity.Listing) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tYEAR\tPRICE\tSTATUS\tVIEWS\tCREATED")
	for _, l := range listings {
		price := "-"
		if l.Price != nil {
			price = fmt.Sprintf("%d", *l.Price)
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%d\t%s\t%s\t%d\t%s\n",
			l.ID, l.Brand, l.Model, l.Year, price, l.Status, l.Views, l.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func newLatestCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent listings",
		RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command) error {
			listings, err := e.listings.Latest(ctx, n)
			if err != nil {
				return err
			}
			printListings(cmd.OutOrStdout(), listings)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&n, "number", "n", 4, "how many listings")
	return cmd
}

func newDeleteLatestCmd() *cobra.Command {
	var (
		n   int
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "delete-latest",
		Short: "Delete the most recent listings with their saved entries, posts and images",
		RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command) error {
			out := cmd.OutOrStdout()
			listings, err := e.listings.Latest(ctx, n)
			if err != nil {
				return err
			}
			printListings(out, listings)
			if !yes {
				fmt.Fprintln(out, "re-run with --yes to delete these listings")
				return nil
			}

			var tasks syndication.Dispatcher
			if q, err := queue.NewRabbitMQClient(e.cfg, e.log); err != nil {
				e.log.Warn("RabbitMQ unavailable, channel posts are left in place: %v", err)
			} else {
				defer q.Close()
				tasks = syndication.NewQueueDispatcher(q)
			}
			var objects usecase.ObjectRemover
			if client, err := s3.NewClient(e.cfg); err != nil {
				e.log.Warn("S3 unavailable, images are left in place: %v", err)
			} else {
				objects = client
			}

			uc := usecase.NewListingUseCase(e.listings, e.users, nil, objects, tasks, nil, e.log)
			operator := entity.Actor{UserID: operatorID, Role: middleware.RoleAdmin}
			deleted := 0
			for _, l := range listings {
				if err := uc.Delete(ctx, operator, l.ID); err != nil {
					fmt.Fprintf(out, "FAIL  %s: %v\n", l.ID, err)
					continue
				}
				deleted++
			}
			fmt.Fprintf(out, "deleted %d of %d listings\n", deleted, len(listings))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&n, "number", "n", 4, "how many listings")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func newAddViewsCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "add-views",
		Short: "Add views to every listing",
		RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			rows, err := e.listings.AddViews(ctx, count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d views to %d listings\n", count, rows)
			return nil
		}),
	}
	cmd.Flags().IntVar(&count, "count", 100, "views to add per listing")
	return cmd
}
