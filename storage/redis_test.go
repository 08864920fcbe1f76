package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cameroncuttingedge/place/canvas"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, size int) (*RedisPixels, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	px := NewRedisPixels(client, "place_bitmap", size)
	require.NoError(t, px.Init(context.Background()))
	return px, mr
}

func TestRedisPixels_InitCreatesBlankBoard(t *testing.T) {
	px, mr := newTestRedis(t, 5)

	got, err := mr.Get("place_bitmap")
	require.NoError(t, err)
	assert.Len(t, got, canvas.PackedLen(5))

	board, err := px.Board(context.Background())
	require.NoError(t, err)
	assert.Len(t, board, 25)
}

func TestRedisPixels_InitKeepsExistingPixels(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("place_bitmap", "\xAB"))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	px := NewRedisPixels(client, "place_bitmap", 4)
	require.NoError(t, px.Init(context.Background()))

	b, err := px.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0, 0, 0, 0, 0, 0, 0}, b)
}

func TestRedisPixels_SetPreservesSibling(t *testing.T) {
	ctx := context.Background()
	px, _ := newTestRedis(t, 4)

	require.NoError(t, px.SetPixel(ctx, 0, 0, 0xA))
	require.NoError(t, px.SetPixel(ctx, 1, 0, 0x5))
	require.NoError(t, px.SetPixel(ctx, 0, 0, 0x3))

	c, err := px.Pixel(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, canvas.Color(3), c)
	c, err = px.Pixel(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, canvas.Color(5), c)

	b, err := px.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x35), b[0])
}

func TestRedisPixels_ConcurrentSiblingWrites(t *testing.T) {
	ctx := context.Background()
	const size = 8
	px, _ := newTestRedis(t, size)

	var wg sync.WaitGroup
	for i := 0; i < size*size; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, px.SetPixel(ctx, i%size, i/size, canvas.Color(15-i%16)))
		}(i)
	}
	wg.Wait()

	board, err := px.Board(ctx)
	require.NoError(t, err)
	for i, c := range board {
		assert.Equal(t, canvas.Color(15-i%16), c, "index %d", i)
	}
}

func TestRedisPixels_Reset(t *testing.T) {
	ctx := context.Background()
	px, _ := newTestRedis(t, 4)
	require.NoError(t, px.SetPixel(ctx, 3, 3, 7))
	require.NoError(t, px.Reset(ctx))

	c, err := px.Pixel(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, canvas.Color(0), c)
}
