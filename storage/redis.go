package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// setNibble rewrites one nibble of one byte inside Redis, so concurrent
// writers of sibling pixels never race.
// KEYS[1] board key, ARGV[1] byte offset, ARGV[2] "1" for upper nibble,
// ARGV[3] color.
var setNibble = redis.NewScript(`
local cur = redis.call('GETRANGE', KEYS[1], ARGV[1], ARGV[1])
local b = 0
if string.len(cur) == 1 then
  b = string.byte(cur)
end
local c = tonumber(ARGV[3])
local lower = b % 16
if ARGV[2] == '1' then
  b = c * 16 + lower
else
  b = (b - lower) + c
end
redis.call('SETRANGE', KEYS[1], ARGV[1], string.char(b))
return b
`)

// RedisPixels keeps the packed board as a single Redis string.
type RedisPixels struct {
	client *redis.Client
	key    string
	size   int
}

func NewRedisPixels(client *redis.Client, key string, size int) *RedisPixels {
	return &RedisPixels{client: client, key: key, size: size}
}

// ConnectRedis pings until the server answers, waiting between attempts.
func ConnectRedis(ctx context.Context, opts *redis.Options, retries int, wait time.Duration) (*redis.Client, error) {
	client := redis.NewClient(opts)
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Warn().Err(err).Str("addr", opts.Addr).Int("attempt", attempt).Msg("Redis not reachable, retrying")
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	client.Close()
	return nil, fmt.Errorf("failed to connect to redis at %s after %d attempts: %w", opts.Addr, retries, err)
}

// Init makes sure the key holds the full packed board, zero-filling it if
// it is missing or short. Existing pixels are kept.
func (r *RedisPixels) Init(ctx context.Context) error {
	want := canvas.PackedLen(r.size)
	created, err := r.client.SetNX(ctx, r.key, strings.Repeat("\x00", want), 0).Result()
	if err != nil {
		return fmt.Errorf("create board key: %w", err)
	}
	if created {
		log.Info().Str("key", r.key).Int("bytes", want).Msg("Created blank board")
		return nil
	}
	have, err := r.client.StrLen(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("board length: %w", err)
	}
	if int(have) < want {
		pad := strings.Repeat("\x00", want-int(have))
		if err := r.client.SetRange(ctx, r.key, have, pad).Err(); err != nil {
			return fmt.Errorf("extend board: %w", err)
		}
	}
	return nil
}

func (r *RedisPixels) Pixel(ctx context.Context, x, y int) (canvas.Color, error) {
	i := canvas.Index(x, y, r.size)
	b, err := r.client.GetRange(ctx, r.key, int64(i/2), int64(i/2)).Bytes()
	if err != nil {
		return 0, fmt.Errorf("getrange: %w", err)
	}
	if len(b) == 0 {
		return 0, nil
	}
	return canvas.Nibble(b[0], i), nil
}

func (r *RedisPixels) SetPixel(ctx context.Context, x, y int, c canvas.Color) error {
	i := canvas.Index(x, y, r.size)
	upper := "0"
	if i%2 == 0 {
		upper = "1"
	}
	if err := setNibble.Run(ctx, r.client, []string{r.key}, i/2, upper, int(c)).Err(); err != nil {
		return fmt.Errorf("set nibble: %w", err)
	}
	return nil
}

func (r *RedisPixels) Board(ctx context.Context) ([]canvas.Color, error) {
	packed, err := r.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	return canvas.Unpack(packed, r.size*r.size), nil
}

// Bytes returns the raw packed board.
func (r *RedisPixels) Bytes(ctx context.Context) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// Reset zeroes the whole board.
func (r *RedisPixels) Reset(ctx context.Context) error {
	if err := r.client.Set(ctx, r.key, strings.Repeat("\x00", canvas.PackedLen(r.size)), 0).Err(); err != nil {
		return fmt.Errorf("reset board: %w", err)
	}
	return nil
}
