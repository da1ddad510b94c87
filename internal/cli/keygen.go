package cli

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/qrcode"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

func newKeygenCmd(rt *Runtime) *cobra.Command {
	var (
		issuer  string
		account string
		add     bool
		qr      bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new TOTP secret",
		Long: `Generates a random 160-bit secret and prints it with its otpauth URI.

Use it to enroll a service you control. With --add the key is also stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := totp.GenerateSecretKey()
			if err != nil {
				return err
			}
			uri := totp.KeySpec{
				Base32:      secret,
				Algorithm:   totp.DefaultAlgorithm,
				Digits:      totp.DefaultDigits,
				Period:      totp.DefaultPeriod,
				Issuer:      issuer,
				AccountName: account,
			}.URI()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\nuri:    %s\n", secret, uri)

			if qr {
				art, err := qrcode.Terminal(uri)
				if err != nil {
					return err
				}
				fmt.Fprint(out, art)
			}

			if !add {
				return nil
			}

			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}
			view, err := item.ViewFromKey(uri, cmp.Or(issuer, account, "Generated"))
			if err != nil {
				return err
			}
			if err := app.Repository.Add(ctx, view); err != nil {
				return err
			}
			fmt.Fprintf(out, "added %s (%s)\n", view.Name, view.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&issuer, "issuer", "", "issuer written into the URI")
	cmd.Flags().StringVar(&account, "account", "", "account name written into the URI")
	cmd.Flags().BoolVar(&add, "add", false, "store the generated key as a new item")
	cmd.Flags().BoolVar(&qr, "qr", false, "also print the URI as a terminal QR code")

	return cmd
}
