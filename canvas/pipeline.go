package canvas

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ProvenanceLog is the append-only history of accepted draws together with
// the durable per-user last-draw table.
type ProvenanceLog interface {
	Append(ctx context.Context, ev DrawEvent) error
	RecordLastDraw(ctx context.Context, user string, ts time.Time) error
	LastTimestampFor(ctx context.Context, user string) (time.Time, bool, error)
}

// Publisher fans a draw out to live viewers. Publish must not block on
// delivery.
type Publisher interface {
	Publish(ev DrawEvent)
}

type DrawRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color int    `json:"color"`
	User  string `json:"-"`
}

// Pipeline sequences validation, cooldown, log, store and broadcast for
// every draw.
type Pipeline struct {
	bounds Bounds
	pixels PixelStore
	gate   *DrawGate
	log    ProvenanceLog
	pub    Publisher
}

func NewPipeline(bounds Bounds, pixels PixelStore, provenance ProvenanceLog, pub Publisher) *Pipeline {
	return &Pipeline{
		bounds: bounds,
		pixels: pixels,
		gate:   NewDrawGate(provenance.LastTimestampFor),
		log:    provenance,
		pub:    pub,
	}
}

func (p *Pipeline) Bounds() Bounds {
	return p.bounds
}

// Validate checks a request against the board and palette bounds.
func (p *Pipeline) Validate(req DrawRequest) error {
	if req.X < 0 || req.X >= p.bounds.Size {
		return &ValidationError{Field: "x", Value: req.X, Limit: p.bounds.Size}
	}
	if req.Y < 0 || req.Y >= p.bounds.Size {
		return &ValidationError{Field: "y", Value: req.Y, Limit: p.bounds.Size}
	}
	if req.Color < 0 || req.Color >= p.bounds.Colors {
		return &ValidationError{Field: "color", Value: req.Color, Limit: p.bounds.Colors}
	}
	return nil
}

// Submit runs one draw. Validation and cooldown rejections have no side
// effects. Once admitted, a store failure stops the draw but nothing
// already written is rolled back; a logged draw may therefore be missing
// from the board.
func (p *Pipeline) Submit(ctx context.Context, req DrawRequest, now time.Time) (DrawEvent, error) {
	if err := p.Validate(req); err != nil {
		return DrawEvent{}, err
	}

	d, err := p.gate.Admit(ctx, req.User, now, p.bounds.Delay)
	if err != nil {
		return DrawEvent{}, err
	}
	if !d.Admitted {
		return DrawEvent{}, &RateLimitError{Remaining: d.Remaining}
	}

	ev := DrawEvent{
		X:         req.X,
		Y:         req.Y,
		Color:     Color(req.Color),
		User:      req.User,
		Timestamp: now,
	}

	if err := p.log.RecordLastDraw(ctx, ev.User, now); err != nil {
		return DrawEvent{}, storeErr("record last draw", err)
	}
	if err := p.log.Append(ctx, ev); err != nil {
		return DrawEvent{}, storeErr("append draw", err)
	}
	if err := p.pixels.SetPixel(ctx, ev.X, ev.Y, ev.Color); err != nil {
		return DrawEvent{}, storeErr("set pixel", err)
	}

	p.pub.Publish(ev)

	log.Debug().
		Str("user", ev.User).
		Int("x", ev.X).
		Int("y", ev.Y).
		Uint8("color", uint8(ev.Color)).
		Msg("Draw accepted")
	return ev, nil
}

// LastDraw returns the user's last accepted draw time, if any.
func (p *Pipeline) LastDraw(ctx context.Context, user string) (time.Time, bool, error) {
	ts, ok, err := p.log.LastTimestampFor(ctx, user)
	if err != nil {
		return time.Time{}, false, storeErr("read last draw", err)
	}
	return ts, ok, nil
}

// Pixel reads one pixel after checking bounds.
func (p *Pipeline) Pixel(ctx context.Context, x, y int) (Color, error) {
	if err := p.Validate(DrawRequest{X: x, Y: y}); err != nil {
		return 0, err
	}
	c, err := p.pixels.Pixel(ctx, x, y)
	if err != nil {
		return 0, storeErr("read pixel", err)
	}
	return c, nil
}

// Board returns a per-pixel consistent snapshot.
func (p *Pipeline) Board(ctx context.Context) ([]Color, error) {
	b, err := p.pixels.Board(ctx)
	if err != nil {
		return nil, storeErr("read board", err)
	}
	return b, nil
}
