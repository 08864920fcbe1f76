package cli

import (
	"context"
	"fmt"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/config"
	"github.com/cameroncuttingedge/place/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// backends are the stores a command works against. close releases them.
type backends struct {
	pixels     canvas.PixelStore
	redis      *storage.RedisPixels
	provenance *storage.SQLiteLog
	closers    []func() error
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Closing backend")
		}
	}
}

// openBackends connects to the provenance log and the configured pixel
// backend. A memory board is rebuilt from the log.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	provenance, err := storage.OpenSQLite(cfg.Provenance.Path)
	if err != nil {
		return nil, err
	}
	b.provenance = provenance
	b.closers = append(b.closers, provenance.Close)

	switch cfg.Pixels.Backend {
	case config.BackendRedis:
		client, err := storage.ConnectRedis(ctx, &redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.ConnectRetries, cfg.RetryWait())
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, client.Close)

		px := storage.NewRedisPixels(client, cfg.Pixels.Key, cfg.Board.Size)
		if err := px.Init(ctx); err != nil {
			b.close()
			return nil, err
		}
		b.redis = px
		b.pixels = px

	case config.BackendMemory:
		board := canvas.NewPackedBoard(cfg.Board.Size)
		n, err := canvas.Replay(ctx, provenance, board, cfg.Board.Size)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("rebuild board from log: %w", err)
		}
		log.Info().Int("draws", n).Msg("Rebuilt in-memory board from provenance log")
		b.pixels = board

	default:
		b.close()
		return nil, fmt.Errorf("unknown pixel backend %q", cfg.Pixels.Backend)
	}
	return b, nil
}
