package events

import (
	"time"

	"github.com/cameroncuttingedge/place/canvas"
)

const TypeDraw = "draw"

// Message is what live viewers receive for every accepted draw.
type Message struct {
	Type      string `json:"type"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Color     int    `json:"color"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

func FromDraw(ev canvas.DrawEvent) Message {
	return Message{
		Type:      TypeDraw,
		X:         ev.X,
		Y:         ev.Y,
		Color:     int(ev.Color),
		User:      ev.User,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Config advertises the fixed canvas bounds.
type Config struct {
	BoardSize int     `json:"board_size"`
	MaxColors int     `json:"max_colors"`
	Delay     float64 `json:"delay"`
}

func FromBounds(b canvas.Bounds) Config {
	return Config{
		BoardSize: b.Size,
		MaxColors: b.Colors,
		Delay:     b.Delay.Seconds(),
	}
}
