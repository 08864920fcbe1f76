package export

import "image/color"

// Palette is the fixed 16-colour palette clients render color indices with.
var Palette = [16]color.RGBA{
	{0xFF, 0xFF, 0xFF, 0xFF}, // white
	{0xE4, 0xE4, 0xE4, 0xFF}, // light grey
	{0x88, 0x88, 0x88, 0xFF}, // grey
	{0x22, 0x22, 0x22, 0xFF}, // black
	{0xFF, 0xA7, 0xD1, 0xFF}, // pink
	{0xE5, 0x00, 0x00, 0xFF}, // red
	{0xE5, 0x95, 0x00, 0xFF}, // orange
	{0xA0, 0x6A, 0x42, 0xFF}, // brown
	{0xE5, 0xD9, 0x00, 0xFF}, // yellow
	{0x94, 0xE0, 0x44, 0xFF}, // lime
	{0x02, 0xBE, 0x01, 0xFF}, // green
	{0x00, 0xD3, 0xDD, 0xFF}, // cyan
	{0x00, 0x83, 0xC7, 0xFF}, // blue
	{0x00, 0x00, 0xEA, 0xFF}, // dark blue
	{0xCF, 0x6E, 0xE4, 0xFF}, // magenta
	{0x82, 0x00, 0x80, 0xFF}, // purple
}
