package cli

import (
	"fmt"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewReplayCommand rebuilds the Redis board from the provenance log.
func NewReplayCommand(root *RootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the pixel backend from the provenance log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.Pixels.Backend != config.BackendRedis {
				return fmt.Errorf("replay needs the %q backend; the %q backend is rebuilt on every start", config.BackendRedis, cfg.Pixels.Backend)
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			if reset {
				if err := b.redis.Reset(ctx); err != nil {
					return err
				}
			}
			n, err := canvas.Replay(ctx, b.provenance, b.redis, cfg.Board.Size)
			if err != nil {
				return err
			}
			log.Info().Int("draws", n).Str("key", cfg.Pixels.Key).Msg("Replay finished")
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d draws\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", true, "zero the board before replaying")
	return cmd
}
