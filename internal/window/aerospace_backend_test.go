package window

import (
	"context"
	"testing"

	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aeroAllWorkspaces    = "list-workspaces --all --json"
	aeroFocusedWorkspace = "list-workspaces --focused --json"
	aeroAllWindows       = "list-windows --all --json --format %{window-id} %{app-name} %{window-title} %{workspace}"
	aeroFocusedWindow    = "list-windows --focused --json"
)

func aerospaceFixture() *scriptedRunner {
	return newScriptedRunner().
		on(aeroAllWorkspaces, `[{"workspace":"1"},{"workspace":"2"}]`).
		on(aeroAllWindows, `[
			{"window-id":10,"app-name":"A","window-title":"a.txt","workspace":"1"},
			{"window-id":11,"app-name":"B","window-title":"","workspace":""}
		]`).
		on(aeroFocusedWorkspace, `[{"workspace":"1"}]`).
		on(aeroFocusedWindow, `[{"window-id":10,"app-name":"A","window-title":"a.txt"}]`)
}

func TestAerospace_SpacesWithWindows(t *testing.T) {
	runner := aerospaceFixture()
	b := NewAerospaceBackend("/usr/local/bin/aerospace", runner)

	spaces, err := b.SpacesWithWindows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []model.Space{{
		ID:      "1",
		Focused: true,
		Windows: []model.Window{
			{ID: 10, App: "A", Title: "a.txt", Focused: true},
			{ID: 11, App: "B"},
		},
	}}, spaces)
	assert.Equal(t, 1, runner.count(aeroFocusedWorkspace), "focused workspace is queried once")
	assert.Equal(t, 1, runner.count(aeroFocusedWindow))
}

func TestAerospace_ListFailureAbortsSnapshot(t *testing.T) {
	for _, failing := range []string{aeroAllWorkspaces, aeroAllWindows} {
		t.Run(failing, func(t *testing.T) {
			runner := aerospaceFixture().fail(failing)
			b := NewAerospaceBackend("aerospace", runner)

			spaces, err := b.SpacesWithWindows(context.Background())
			assert.Error(t, err)
			assert.Nil(t, spaces)
		})
	}
}

func TestAerospace_MalformedJSONAbortsSnapshot(t *testing.T) {
	runner := aerospaceFixture().on(aeroAllWindows, `{"not":"an array"`)
	b := NewAerospaceBackend("aerospace", runner)

	_, err := b.SpacesWithWindows(context.Background())
	assert.ErrorContains(t, err, "decode windows")
}

func TestAerospace_FocusQueryFailureDegrades(t *testing.T) {
	runner := aerospaceFixture().fail(aeroFocusedWorkspace).fail(aeroFocusedWindow)
	b := NewAerospaceBackend("aerospace", runner)

	spaces, err := b.SpacesWithWindows(context.Background())
	require.NoError(t, err)

	// Window 11 has no workspace tag and no focused space to fall back to
	require.Len(t, spaces, 1)
	assert.False(t, spaces[0].Focused)
	assert.Equal(t, []model.Window{{ID: 10, App: "A", Title: "a.txt"}}, spaces[0].Windows)
}

func TestAerospace_EmptyFocusedResults(t *testing.T) {
	runner := aerospaceFixture().
		on(aeroFocusedWindow, `[]`).
		on(aeroFocusedWorkspace, `[]`)
	b := NewAerospaceBackend("aerospace", runner)

	spaces, err := b.SpacesWithWindows(context.Background())
	require.NoError(t, err)
	_, _, ok := model.FocusedWindow(spaces)
	assert.False(t, ok)
}

func TestAerospace_FocusCommands(t *testing.T) {
	runner := newScriptedRunner().
		on("workspace 3", "").
		on("focus --window-id 42", "")
	b := NewAerospaceBackend("aerospace", runner)

	require.NoError(t, b.FocusSpace(context.Background(), "3", true))
	require.NoError(t, b.FocusWindow(context.Background(), 42))
	assert.True(t, runner.called("workspace 3"))
	assert.True(t, runner.called("focus --window-id 42"))

	assert.Error(t, b.FocusWindow(context.Background(), 7))
}
