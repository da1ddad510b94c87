package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator/pkg/broadcast"
	"github.com/dmitrymomot/authenticator/pkg/expiration"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/repository"
)

func newListCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List items grouped into sections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			res, err := firstList(ctx, cmd.ErrOrStderr(), app.Repository.ItemList(ctx))
			if err != nil {
				return err
			}
			return printSections(cmd.OutOrStdout(), res.Sections, rt.now())
		},
	}
}

func newCodesCmd(rt *Runtime) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Show current codes, optionally refreshing them as they expire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			results := app.Repository.ItemList(ctx)
			if !watch {
				res, err := firstList(ctx, cmd.ErrOrStderr(), results)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), item.AllItems(res.Sections), rt.now())
			}

			sched := expiration.New(nil,
				expiration.WithClock(rt.now),
				expiration.WithLogger(app.Logger.With(logger.Component("expiration"))),
			)
			defer sched.Stop()

			return watchCodes(ctx, cmd, rt, app.Repository, sched, results)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and print codes again whenever they change")

	return cmd
}

// errWatchStopped reports that expired batches stopped arriving while the
// command was still running.
var errWatchStopped = errors.New("cli: expiration updates stopped")

// expiredFeed follows a scheduler's expired batches. The scheduler drops a
// subscriber that falls behind; the feed then subscribes again.
type expiredFeed struct {
	subscribe func(ctx context.Context) broadcast.Subscriber[[]item.ListItem]
	sub       broadcast.Subscriber[[]item.ListItem]
	received  bool
}

func newExpiredFeed(ctx context.Context, subscribe func(context.Context) broadcast.Subscriber[[]item.ListItem]) *expiredFeed {
	return &expiredFeed{subscribe: subscribe, sub: subscribe(ctx)}
}

func (f *expiredFeed) batches(ctx context.Context) <-chan broadcast.Message[[]item.ListItem] {
	return f.sub.Receive(ctx)
}

// resubscribe replaces a dropped subscription. A subscription that closed
// before delivering anything means the scheduler itself is gone.
func (f *expiredFeed) resubscribe(ctx context.Context) error {
	if !f.received {
		return errWatchStopped
	}
	_ = f.sub.Close()
	f.sub = f.subscribe(ctx)
	f.received = false
	return nil
}

func (f *expiredFeed) close() error {
	return f.sub.Close()
}

// watchCodes prints the codes every time the item list changes or a code expires.
// It returns when ctx is done or the item list closes.
func watchCodes(
	ctx context.Context,
	cmd *cobra.Command,
	rt *Runtime,
	repo *repository.Repository,
	sched *expiration.Scheduler,
	results <-chan repository.ListResult,
) error {
	feed := newExpiredFeed(ctx, sched.Subscribe)
	defer feed.close()

	var sections []item.ListSection
	render := func() error {
		sched.Configure(item.AllItems(sections))
		now := rt.now()
		fmt.Fprintf(cmd.OutOrStdout(), "--- %s\n", now.Format("15:04:05"))
		return printItems(cmd.OutOrStdout(), item.AllItems(sections), now)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case res, ok := <-results:
			if !ok {
				return nil
			}
			if res.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", res.Err)
				continue
			}
			sections = res.Sections
			if err := render(); err != nil {
				return err
			}

		case msg, ok := <-feed.batches(ctx):
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				if err := feed.resubscribe(ctx); err != nil {
					return err
				}
				// Batches sent while unsubscribed are lost; refresh everything shown.
				msg.Data = item.AllItems(sections)
			} else {
				feed.received = true
			}
			refreshed := repo.RefreshCodes(ctx, msg.Data)
			sections = item.UpdateSections(sections, refreshed)
			if err := render(); err != nil {
				return err
			}
		}
	}
}

func newSearchCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find items whose name contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			res, err := first(ctx, app.Repository.SearchStream(ctx, args[0]))
			if err != nil {
				return err
			}
			if res.Err != nil {
				return res.Err
			}
			return printItems(cmd.OutOrStdout(), res.Items, rt.now())
		},
	}
}

// firstList returns the first successful item list. Failed emissions are
// reported to errOut and skipped.
func firstList(ctx context.Context, errOut io.Writer, results <-chan repository.ListResult) (repository.ListResult, error) {
	for {
		res, err := first(ctx, results)
		if err != nil {
			return repository.ListResult{}, err
		}
		if res.Err == nil {
			return res, nil
		}
		fmt.Fprintln(errOut, "warning:", res.Err)
	}
}
