package tracker

import (
	"context"

	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/bryanchriswhite/SpaceBar/internal/window"
)

// Collect runs one provider query and returns the model as the engine
// would publish it. On error the returned model is empty, never nil.
func Collect(ctx context.Context, p window.Provider, icons IconLookup) ([]model.Space, error) {
	spaces, err := p.SpacesWithWindows(ctx)
	if err != nil {
		return []model.Space{}, err
	}
	if spaces == nil {
		spaces = []model.Space{}
	}
	model.SortSpaces(spaces)
	if icons != nil {
		for i := range spaces {
			for j := range spaces[i].Windows {
				w := &spaces[i].Windows[j]
				if img, err := icons.Lookup(w.App); err == nil {
					w.Icon = img
				}
			}
		}
	}
	return spaces, nil
}
