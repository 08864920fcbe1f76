package canvas

import (
	"context"
	"fmt"
)

// History iterates accepted draws in the order they were logged.
type History interface {
	Replay(ctx context.Context, fn func(DrawEvent) error) error
}

// Replay applies every logged draw to store and returns how many were
// applied. Draws that fall outside the store's size are skipped.
func Replay(ctx context.Context, src History, store PixelStore, size int) (int, error) {
	n := 0
	err := src.Replay(ctx, func(ev DrawEvent) error {
		if ev.X < 0 || ev.X >= size || ev.Y < 0 || ev.Y >= size {
			return nil
		}
		if err := store.SetPixel(ctx, ev.X, ev.Y, ev.Color); err != nil {
			return fmt.Errorf("apply draw (%d,%d): %w", ev.X, ev.Y, err)
		}
		n++
		return nil
	})
	return n, err
}
