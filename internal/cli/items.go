package cli

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/sanitizer"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

func newAddCmd(rt *Runtime) *cobra.Command {
	var (
		name     string
		username string
		favorite bool
	)

	cmd := &cobra.Command{
		Use:   "add KEY",
		Short: "Add an item from an otpauth URI, steam:// URI or Base32 secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			name = sanitizer.Field(name)
			view, err := item.ViewFromKey(args[0], cmp.Or(name, "Unnamed"))
			if err != nil {
				return err
			}
			if name != "" {
				view.Name = name
			}
			if u := sanitizer.Field(username); u != "" {
				view.Username = item.Ptr(u)
			}
			view.Favorite = favorite

			if err := app.Repository.Add(ctx, view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", view.Name, view.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name, defaults to the key's issuer or account")
	cmd.Flags().StringVar(&username, "username", "", "account name shown under the item")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "pin the item to the favorites section")

	return cmd
}

func newShowCmd(rt *Runtime) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one item and its current code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			res, err := first(ctx, app.Repository.ItemDetails(ctx, args[0]))
			if err != nil {
				return err
			}
			if res.Err != nil {
				return res.Err
			}
			if res.View == nil {
				return fmt.Errorf("%w: %s", item.ErrItemNotFound, args[0])
			}

			return printDetails(cmd, *res.View, reveal, rt.now())
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the key instead of masking it")

	return cmd
}

func newEditCmd(rt *Runtime) *cobra.Command {
	var (
		name     string
		username string
		key      string
		favorite bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the fields of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			view, err := app.Repository.Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				view.Name = sanitizer.Field(name)
			}
			if flags.Changed("username") {
				view.Username = item.OptionalPtr(sanitizer.Field(username))
			}
			if flags.Changed("key") {
				if _, err := totp.ParseKey(key); err != nil {
					return err
				}
				view.TOTPKey = item.Ptr(strings.TrimSpace(key))
			}
			if flags.Changed("favorite") {
				view.Favorite = favorite
			}

			if err := app.Repository.Update(ctx, view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", view.Name, view.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&username, "username", "", "new account name, empty to clear")
	cmd.Flags().StringVar(&key, "key", "", "new key")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "pin or unpin the item")

	return cmd
}

func newDeleteCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}
			if err := app.Repository.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
