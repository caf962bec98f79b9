package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDListNumberArray(t *testing.T) {
	ids, err := ParseIDList([]any{float64(1), float64(2), float64(3)})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestParseIDListStringArray(t *testing.T) {
	ids, err := ParseIDList([]any{"4", " 5 ", "6"})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, ids)
}

func TestParseIDListCommaSeparatedString(t *testing.T) {
	ids, err := ParseIDList("7, 8, ,9")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, ids)
}

func TestParseIDListRejectsGarbage(t *testing.T) {
	_, err := ParseIDList([]any{"abc"})
	assert.Error(t, err)

	_, err = ParseIDList("1,dog,3")
	assert.Error(t, err)

	_, err = ParseIDList(map[string]any{"id": 1})
	assert.Error(t, err)

	_, err = ParseIDList([]any{true})
	assert.Error(t, err)
}

func TestParseIDListEmptyString(t *testing.T) {
	ids, err := ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
