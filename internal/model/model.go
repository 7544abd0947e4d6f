// Package model holds the published space/window snapshot types.
package model

import (
	"cmp"
	"fmt"
	"image"
	"slices"
)

// Window is a single on-screen application window.
type Window struct {
	ID      int    `json:"id"`
	App     string `json:"app"`
	Title   string `json:"title"`
	Focused bool   `json:"focused"`

	// Icon is attached by the tracker from the icon service; nil when unknown.
	Icon image.Image `json:"-"`
}

// Space is a virtual desktop as reported by the window manager.
type Space struct {
	ID      string   `json:"id"`
	Focused bool     `json:"focused"`
	Windows []Window `json:"windows"`
}

// Active reports whether the space is focused or holds the focused window.
func (s Space) Active() bool {
	if s.Focused {
		return true
	}
	for _, w := range s.Windows {
		if w.Focused {
			return true
		}
	}
	return false
}

// Window returns the window with the given id in this space.
func (s Space) Window(id int) (Window, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return Window{}, false
}

// SortSpaces orders spaces by id ascending in place. Ids compare as plain
// strings, so "10" sorts before "2".
func SortSpaces(spaces []Space) {
	slices.SortStableFunc(spaces, func(a, b Space) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortWindows orders windows by id ascending in place.
func SortWindows(windows []Window) {
	slices.SortStableFunc(windows, func(a, b Window) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// FocusedWindow returns the focused window of a snapshot, if any.
func FocusedWindow(spaces []Space) (Window, string, bool) {
	for _, s := range spaces {
		for _, w := range s.Windows {
			if w.Focused {
				return w, s.ID, true
			}
		}
	}
	return Window{}, "", false
}

// FindSpace looks a space up by id.
func FindSpace(spaces []Space, id string) (Space, bool) {
	for _, s := range spaces {
		if s.ID == id {
			return s, true
		}
	}
	return Space{}, false
}

// Validate checks the published-snapshot invariants: unique ids, at most
// one focused window, no empty spaces, and strict ascending order of
// spaces and of windows within each space.
func Validate(spaces []Space) error {
	seenWindows := make(map[int]string)
	focused := 0
	for i, s := range spaces {
		if i > 0 && spaces[i-1].ID >= s.ID {
			return fmt.Errorf("space %q out of order after %q", s.ID, spaces[i-1].ID)
		}
		if len(s.Windows) == 0 {
			return fmt.Errorf("space %q has no windows", s.ID)
		}
		for j, w := range s.Windows {
			if j > 0 && s.Windows[j-1].ID >= w.ID {
				return fmt.Errorf("window %d out of order in space %q", w.ID, s.ID)
			}
			if other, ok := seenWindows[w.ID]; ok {
				return fmt.Errorf("window %d in both space %q and %q", w.ID, other, s.ID)
			}
			seenWindows[w.ID] = s.ID
			if w.Focused {
				focused++
			}
		}
	}
	if focused > 1 {
		return fmt.Errorf("%d windows focused", focused)
	}
	return nil
}
