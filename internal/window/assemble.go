package window

import (
	"github.com/bryanchriswhite/SpaceBar/internal/model"
)

// windowRecord is a provider window reduced to what assembly needs.
// Workspace is the provider's space tag; empty means "unknown".
type windowRecord struct {
	ID        int
	App       string
	Title     string
	Workspace string
}

// snapshotParts holds the results of one query round. A nil focus pointer
// means the focused-space or focused-window query failed or was empty.
type snapshotParts struct {
	Spaces        []string
	Windows       []windowRecord
	FocusedSpace  *string
	FocusedWindow *int
}

// assemble merges one query round into spaces. Windows go to the space
// named by their workspace tag, or to the focused space when the tag is
// empty; windows with no matching space are dropped. Duplicate ids keep
// the first occurrence. Empty spaces are removed; space order follows the
// provider, window order is by id.
func assemble(p snapshotParts) []model.Space {
	order := make([]string, 0, len(p.Spaces))
	byID := make(map[string]*model.Space, len(p.Spaces))
	for _, id := range p.Spaces {
		if _, dup := byID[id]; dup {
			continue
		}
		s := &model.Space{ID: id}
		if p.FocusedSpace != nil && *p.FocusedSpace == id {
			s.Focused = true
		}
		byID[id] = s
		order = append(order, id)
	}

	seen := make(map[int]bool, len(p.Windows))
	for _, rec := range p.Windows {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		target := rec.Workspace
		if target == "" {
			if p.FocusedSpace == nil {
				continue
			}
			target = *p.FocusedSpace
		}
		space, ok := byID[target]
		if !ok {
			continue
		}
		space.Windows = append(space.Windows, model.Window{
			ID:      rec.ID,
			App:     rec.App,
			Title:   rec.Title,
			Focused: p.FocusedWindow != nil && *p.FocusedWindow == rec.ID,
		})
	}

	result := make([]model.Space, 0, len(order))
	for _, id := range order {
		s := byID[id]
		if len(s.Windows) == 0 {
			continue
		}
		model.SortWindows(s.Windows)
		result = append(result, *s)
	}
	return result
}
