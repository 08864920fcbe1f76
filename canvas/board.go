package canvas

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// MaxBoardSize bounds the side length of any configured board.
	MaxBoardSize = 1024
	// MaxPalette is the largest palette that fits in a nibble.
	MaxPalette = 16
)

type Color uint8

// Bounds are the fixed, advertised limits of a canvas.
type Bounds struct {
	Size   int
	Colors int
	Delay  time.Duration
}

// DrawEvent is one accepted draw. It is passed by value and never mutated.
type DrawEvent struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     Color     `json:"color"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// PixelStore holds the packed board.
type PixelStore interface {
	Pixel(ctx context.Context, x, y int) (Color, error)
	SetPixel(ctx context.Context, x, y int, c Color) error
	Board(ctx context.Context) ([]Color, error)
}

func Index(x, y, size int) int {
	return x + y*size
}

// PackedLen is the number of bytes needed to hold size*size nibbles.
func PackedLen(size int) int {
	return (size*size + 1) / 2
}

// Nibble reads pixel index i out of its packed byte b.
// Even indices live in the upper nibble.
func Nibble(b byte, i int) Color {
	if i%2 == 0 {
		return Color(b >> 4)
	}
	return Color(b & 0x0F)
}

// WithNibble returns b with the nibble for index i replaced by c.
func WithNibble(b byte, i int, c Color) byte {
	if i%2 == 0 {
		return byte(c&0x0F)<<4 | b&0x0F
	}
	return b&0xF0 | byte(c&0x0F)
}

// Unpack expands packed bytes into n colors. Missing bytes read as zero.
func Unpack(packed []byte, n int) []Color {
	out := make([]Color, n)
	for i := range out {
		if i/2 >= len(packed) {
			break
		}
		out[i] = Nibble(packed[i/2], i)
	}
	return out
}

// PackedBoard is the in-process PixelStore. Packed bytes are kept four to a
// word so that every nibble update is a single compare-and-swap.
type PackedBoard struct {
	size  int
	words []atomic.Uint32
}

func NewPackedBoard(size int) *PackedBoard {
	return &PackedBoard{
		size:  size,
		words: make([]atomic.Uint32, (PackedLen(size)+3)/4),
	}
}

func (b *PackedBoard) Size() int {
	return b.size
}

// shift returns the word and bit offset holding pixel index i.
func (b *PackedBoard) shift(i int) (*atomic.Uint32, uint) {
	byteIdx := i / 2
	s := uint(3-byteIdx%4) * 8
	if i%2 == 0 {
		s += 4
	}
	return &b.words[byteIdx/4], s
}

func (b *PackedBoard) Pixel(_ context.Context, x, y int) (Color, error) {
	w, s := b.shift(Index(x, y, b.size))
	return Color(w.Load()>>s) & 0x0F, nil
}

func (b *PackedBoard) SetPixel(_ context.Context, x, y int, c Color) error {
	w, s := b.shift(Index(x, y, b.size))
	mask := uint32(0x0F) << s
	for {
		old := w.Load()
		next := old&^mask | uint32(c&0x0F)<<s
		if w.CompareAndSwap(old, next) {
			return nil
		}
	}
}

func (b *PackedBoard) Board(_ context.Context) ([]Color, error) {
	return Unpack(b.Bytes(), b.size*b.size), nil
}

// Bytes returns a copy of the packed representation.
func (b *PackedBoard) Bytes() []byte {
	out := make([]byte, PackedLen(b.size))
	for i := range out {
		out[i] = byte(b.words[i/4].Load() >> (uint(3-i%4) * 8))
	}
	return out
}

// Load overwrites the board with packed bytes, e.g. a snapshot from a
// durable store. It is not atomic with concurrent SetPixel calls.
func (b *PackedBoard) Load(packed []byte) {
	for wi := range b.words {
		var w uint32
		for j := 0; j < 4; j++ {
			if i := wi*4 + j; i < len(packed) && i < PackedLen(b.size) {
				w |= uint32(packed[i]) << (uint(3-j) * 8)
			}
		}
		b.words[wi].Store(w)
	}
}
