package utils

import (
	"encoding/json"
	"testing"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDString(t *testing.T) {
	a, b := GenerateUUIDString(), GenerateUUIDString()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestConvertBoardToInts_EncodesAsNumbers(t *testing.T) {
	out, err := json.Marshal(ConvertBoardToInts([]canvas.Color{0, 15, 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `[0,15,3]`, string(out))
}
