package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/sanitizer"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printSections writes one block per section. The unnamed section has no header.
func printSections(w io.Writer, sections []item.ListSection, now time.Time) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, "no items")
		return err
	}

	tw := newTable(w)
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		if s.Name != "" {
			fmt.Fprintf(tw, "%s\n", s.Name)
		}
		for _, li := range s.Items {
			printListItem(tw, li, now)
		}
	}
	return tw.Flush()
}

func printItems(w io.Writer, items []item.ListItem, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no items")
		return err
	}

	tw := newTable(w)
	for _, li := range items {
		printListItem(tw, li, now)
	}
	return tw.Flush()
}

func printListItem(w io.Writer, li item.ListItem, now time.Time) {
	var code, left string
	if li.TOTP != nil {
		code = li.TOTP.Code.Code
		left = remaining(li.TOTP.Code, now)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", li.ID, li.Name, li.AccountName, code, left)
}

func remaining(c totp.Code, now time.Time) string {
	return fmt.Sprintf("%ds", int(c.ExpiresIn(now).Round(time.Second).Seconds()))
}

func printDetails(cmd *cobra.Command, v item.View, reveal bool, now time.Time) error {
	tw := newTable(cmd.OutOrStdout())

	fmt.Fprintf(tw, "ID\t%s\n", v.ID)
	fmt.Fprintf(tw, "Name\t%s\n", v.Name)
	if v.Username != nil {
		fmt.Fprintf(tw, "Username\t%s\n", *v.Username)
	}
	fmt.Fprintf(tw, "Favorite\t%t\n", v.Favorite)

	if v.TOTPKey != nil {
		key := sanitizer.Mask(*v.TOTPKey, 4)
		if reveal {
			key = *v.TOTPKey
		}
		fmt.Fprintf(tw, "Key\t%s\n", key)

		code, err := totp.GenerateCode(*v.TOTPKey, now)
		if err != nil {
			fmt.Fprintf(tw, "Code\tunavailable: %v\n", err)
		} else {
			fmt.Fprintf(tw, "Code\t%s (%s left)\n", code.Code, remaining(code, now))
		}
	}

	return tw.Flush()
}
