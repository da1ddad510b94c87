package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/authenticator/pkg/exporter"
	"github.com/dmitrymomot/authenticator/pkg/importer"
	"github.com/dmitrymomot/authenticator/pkg/qrcode"
)

func newImportCmd(rt *Runtime) *cobra.Command {
	var format string

	names := make([]string, 0, len(importer.Formats()))
	for _, f := range importer.Formats() {
		names = append(names, string(f))
	}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import items exported by another authenticator",
		Long: `Imports every item of FILE ("-" reads standard input).

Supported formats: ` + strings.Join(names, ", ") + `.
A google-qr file holds the otpauth-migration:// URI decoded from the export QR code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			n, err := app.Importer.Import(ctx, f, data)
			if err != nil {
				return fmt.Errorf("imported %d items before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(importer.FormatBitwardenJSON), "export format: "+strings.Join(names, ", "))

	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func newExportCmd(rt *Runtime) *cobra.Command {
	var (
		stdout   bool
		clearOld bool
		qrID     string
		png      string
		size     int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every item, or one item as a QR code",
		Long: `Writes every item to a new JSON export file and prints its location.

With --qr ID the item's key is rendered as a QR code other authenticators
can scan: on the terminal, or as a PNG file with --png.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case clearOld:
				app.Exporter.ClearTemporaryFiles(ctx)
				fmt.Fprintln(out, "previous exports removed")
				return nil

			case qrID != "":
				view, err := app.Repository.Fetch(ctx, qrID)
				if err != nil {
					return err
				}
				if png != "" {
					data, err := exporter.QRCode(view, size)
					if err != nil {
						return err
					}
					if err := os.WriteFile(png, data, 0o600); err != nil {
						return err
					}
					fmt.Fprintf(out, "QR code written to %s\n", png)
					return nil
				}
				uri, err := exporter.KeyURI(view)
				if err != nil {
					return err
				}
				art, err := qrcode.Terminal(uri)
				if err != nil {
					return err
				}
				fmt.Fprint(out, art)
				return nil

			case stdout:
				data, err := app.Exporter.Contents(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil

			default:
				location, err := app.Exporter.Export(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, location)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the export instead of writing a file")
	cmd.Flags().BoolVar(&clearOld, "clear", false, "remove previous export files")
	cmd.Flags().StringVar(&qrID, "qr", "", "render the key of item `ID` as a QR code")
	cmd.Flags().StringVar(&png, "png", "", "with --qr, write a PNG image to this path")
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "with --png, image size in pixels")
	cmd.MarkFlagsMutuallyExclusive("stdout", "clear", "qr")

	return cmd
}
