package router

import (
	"context"

	"github.com/yxshee/marfa-gallery/internal/gallery"
)

// seedDevelopmentGallery loads the demo pieces into an empty gallery so a
// fresh local instance has something to browse.
func (a *api) seedDevelopmentGallery(ctx context.Context) error {
	existing, err := a.gallery.List(ctx, gallery.ListParams{Limit: 1})
	if err != nil {
		return err
	}
	if existing.Total > 0 {
		return nil
	}
	_, err = a.gallery.Seed(ctx)
	return err
}
