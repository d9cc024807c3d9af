package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionWellFormed(t *testing.T) {
	raw := `{"facts": [{"content": "User works at Google"}, {"content": "User likes coffee"}]}`
	result, err := ParseExtraction(raw)
	require.NoError(t, err)
	require.Len(t, result.Facts, 2)
	assert.Equal(t, "User works at Google", result.Facts[0].Content)
}

func TestParseExtractionStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"facts\": [{\"content\": \"User's name is John\"}]}\n```"
	result, err := ParseExtraction(raw)
	require.NoError(t, err)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "User's name is John", result.Facts[0].Content)
}

func TestParseExtractionDropsEmptyContent(t *testing.T) {
	raw := `{"facts": [{"content": ""}, {"content": "real fact"}]}`
	result, err := ParseExtraction(raw)
	require.NoError(t, err)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "real fact", result.Facts[0].Content)
}

func TestParseExtractionRepairsMalformedJSON(t *testing.T) {
	raw := `not quite json but here {"content": "User owns a car"} and {"content": "User drives to work"} trailing garbage`
	result, err := ParseExtraction(raw)
	require.NoError(t, err)
	require.Len(t, result.Facts, 2)
	assert.Equal(t, "User owns a car", result.Facts[0].Content)
	assert.Equal(t, "User drives to work", result.Facts[1].Content)
}

func TestParseExtractionEmptyInput(t *testing.T) {
	result, err := ParseExtraction("   ")
	require.NoError(t, err)
	assert.Empty(t, result.Facts)
}

func TestParseConsolidationAdd(t *testing.T) {
	c, err := ParseConsolidation(`{"action": "ADD", "content": "User works at Google"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, c.Action)
	require.NotNil(t, c.Content)
	assert.Equal(t, "User works at Google", *c.Content)
}

func TestParseConsolidationUpdate(t *testing.T) {
	c, err := ParseConsolidation(`{"action": "UPDATE", "id": "0", "content": "User's name is John Doe"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, c.Action)
	require.NotNil(t, c.ID)
	assert.Equal(t, "0", *c.ID)
}

func TestParseConsolidationDelete(t *testing.T) {
	c, err := ParseConsolidation(`{"action": "DELETE", "id": "0"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, c.Action)
	require.NotNil(t, c.ID)
	assert.Equal(t, "0", *c.ID)
}

func TestParseConsolidationNone(t *testing.T) {
	c, err := ParseConsolidation(`{"action": "NONE"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, c.Action)
}

func TestParseConsolidationUnknownAction(t *testing.T) {
	_, err := ParseConsolidation(`{"action": "MAYBE"}`)
	assert.Error(t, err)
}

func TestParseConsolidationEmpty(t *testing.T) {
	_, err := ParseConsolidation("")
	assert.Error(t, err)
}
