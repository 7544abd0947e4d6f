package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortSpaces(t *testing.T) {
	spaces := []Space{{ID: "10"}, {ID: "B"}, {ID: "2"}, {ID: "A"}, {ID: "1"}}
	SortSpaces(spaces)

	var ids []string
	for _, s := range spaces {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"1", "10", "2", "A", "B"}, ids)
}

func TestSortWindows(t *testing.T) {
	windows := []Window{{ID: 30}, {ID: 4}, {ID: 12}}
	SortWindows(windows)
	assert.Equal(t, []Window{{ID: 4}, {ID: 12}, {ID: 30}}, windows)
}

func TestSpaceActive(t *testing.T) {
	assert.True(t, Space{Focused: true}.Active())
	assert.True(t, Space{Windows: []Window{{ID: 1}, {ID: 2, Focused: true}}}.Active())
	assert.False(t, Space{Windows: []Window{{ID: 1}}}.Active())
}

func TestFocusedWindow(t *testing.T) {
	spaces := []Space{
		{ID: "1", Windows: []Window{{ID: 1}}},
		{ID: "2", Windows: []Window{{ID: 2}, {ID: 3, Focused: true}}},
	}
	w, space, ok := FocusedWindow(spaces)
	require.True(t, ok)
	assert.Equal(t, 3, w.ID)
	assert.Equal(t, "2", space)

	_, _, ok = FocusedWindow(spaces[:1])
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	good := []Space{
		{ID: "1", Windows: []Window{{ID: 1, Focused: true}, {ID: 5}}},
		{ID: "2", Windows: []Window{{ID: 3}}},
	}
	assert.NoError(t, Validate(good))
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]Space{
		{ID: "10", Windows: []Window{{ID: 1}}},
		{ID: "2", Windows: []Window{{ID: 2}}},
	}))

	tests := map[string][]Space{
		"empty space":      {{ID: "1"}},
		"space order":      {{ID: "2", Windows: []Window{{ID: 1}}}, {ID: "1", Windows: []Window{{ID: 2}}}},
		"numeric order":    {{ID: "2", Windows: []Window{{ID: 1}}}, {ID: "10", Windows: []Window{{ID: 2}}}},
		"window order":     {{ID: "1", Windows: []Window{{ID: 2}, {ID: 1}}}},
		"duplicate window": {{ID: "1", Windows: []Window{{ID: 1}}}, {ID: "2", Windows: []Window{{ID: 1}}}},
		"two focused":      {{ID: "1", Windows: []Window{{ID: 1, Focused: true}, {ID: 2, Focused: true}}}},
	}
	for name, spaces := range tests {
		assert.Error(t, Validate(spaces), name)
	}
}
