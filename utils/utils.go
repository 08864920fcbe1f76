// utils/utils.go

package utils

import (
	"github.com/cameroncuttingedge/place/canvas"
	"github.com/google/uuid"
)

func GenerateUUIDString() string {
	id := uuid.New()
	return id.String()
}

// ConvertBoardToInts widens colors so the board encodes as a JSON number
// array rather than base64.
func ConvertBoardToInts(board []canvas.Color) []int {
	ints := make([]int, len(board))
	for i, c := range board {
		ints[i] = int(c)
	}
	return ints
}
