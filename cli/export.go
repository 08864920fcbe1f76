package cli

import (
	"fmt"
	"time"

	"github.com/cameroncuttingedge/place/config"
	"github.com/cameroncuttingedge/place/export"
	"github.com/spf13/cobra"
)

func NewExportCommand(root *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the current board to a PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			board, err := b.pixels.Board(ctx)
			if err != nil {
				return err
			}
			if err := export.PDF(out, board, cfg.Board.Size, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "board.pdf", "output file")
	return cmd
}
