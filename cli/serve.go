package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cameroncuttingedge/place/api"
	"github.com/cameroncuttingedge/place/auth"
	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/config"
	"github.com/cameroncuttingedge/place/discovery"
	"github.com/cameroncuttingedge/place/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewServeCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the canvas HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	verifier, err := auth.NewJWTVerifier(cfg.Auth.SecretKey, cfg.Auth.Algorithm)
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	hub := websocket.NewHub(cfg.WebSocket.QueueSize)
	defer hub.Close()

	pipeline := canvas.NewPipeline(cfg.Bounds(), b.pixels, b.provenance, hub)
	server := api.NewServer(pipeline, b.provenance, hub, verifier, api.Options{
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		RequestRate:  cfg.HTTP.RequestRate,
		RequestBurst: cfg.HTTP.RequestBurst,
		CookieName:   cfg.Auth.CookieName,
		WriteTimeout: cfg.WriteTimeout(),
	})

	log.Info().
		Int("boardSize", cfg.Board.Size).
		Int("maxColors", cfg.Board.MaxColors).
		Int("delay", cfg.Board.DelayS).
		Str("backend", cfg.Pixels.Backend).
		Msg("Starting App")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, cfg.Listen, cfg.ShutdownTimeout())
	})

	if cfg.Discovery.MDNS {
		g.Go(func() error {
			port, err := listenPort(cfg.Listen)
			if err != nil {
				return err
			}
			adv, err := discovery.Advertise(cfg.Discovery.Instance, port)
			if err != nil {
				// LAN discovery is optional; keep serving.
				log.Warn().Err(err).Msg("mDNS advertisement disabled")
				return nil
			}
			<-ctx.Done()
			return adv.Shutdown()
		})
	}

	return g.Wait()
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(p)
}
