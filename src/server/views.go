package server

import (
	"context"
	"time"

	"reefing/src/app"
	"reefing/src/logger"
)

// Response shapes. Stored blob keys never leave the server, only signed URLs do.
type (
	UserView struct {
		*app.User
		ProfileImageURL *string `json:"profileImageUrl"`
	}

	OwnerView struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
	}

	PhotoView struct {
		ID        string    `json:"id"`
		URL       string    `json:"url"`
		CreatedAt time.Time `json:"createdAt"`
	}

	CoralView struct {
		*app.Coral
		ImageURL *string `json:"imageUrl,omitempty"`
	}

	AquariumView struct {
		*app.Aquarium
		ImageURL  *string         `json:"imageUrl,omitempty"`
		Photos    []PhotoView     `json:"photos"`
		Equipment []app.Equipment `json:"equipment"`
		Corals    []CoralView     `json:"corals"`
		User      *OwnerView      `json:"user,omitempty"`
	}

	CollectionView struct {
		User      OwnerView      `json:"user"`
		Aquariums []AquariumView `json:"aquariums"`
	}
)

// views resolves blob keys for one request.
type views struct {
	signer *app.Signer
}

func (v views) user(ctx context.Context, u *app.User) UserView {
	return UserView{User: u, ProfileImageURL: v.signer.OptionalURL(ctx, u.ProfileImageKey, logger.FromContext(ctx))}
}

// photos signs every photo, leaving out those whose URL could not be produced.
func (v views) photos(ctx context.Context, photos []app.AquariumPhoto) []PhotoView {
	log := logger.FromContext(ctx)
	out := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		u, err := v.signer.URL(ctx, p.ImageKey)
		if err != nil {
			log.WithError(err).WithField("photoId", p.ID).Warn("omitting photo without signed url")
			continue
		}
		out = append(out, PhotoView{ID: p.ID, URL: u, CreatedAt: p.CreatedAt})
	}
	return out
}

func (v views) coral(ctx context.Context, c *app.Coral) CoralView {
	return CoralView{Coral: c, ImageURL: v.signer.OptionalURL(ctx, c.ImageKey, logger.FromContext(ctx))}
}

func (v views) corals(ctx context.Context, corals []app.Coral) []CoralView {
	out := make([]CoralView, 0, len(corals))
	for i := range corals {
		out = append(out, v.coral(ctx, &corals[i]))
	}
	return out
}

// aquarium shapes an aquarium with whatever children were loaded. The first photo
// doubles as the cover image.
func (v views) aquarium(ctx context.Context, a *app.Aquarium) AquariumView {
	view := AquariumView{
		Aquarium:  a,
		Photos:    v.photos(ctx, a.Photos),
		Equipment: a.Equipment,
		Corals:    v.corals(ctx, a.Corals),
	}
	if view.Equipment == nil {
		view.Equipment = []app.Equipment{}
	}
	if len(view.Photos) > 0 {
		view.ImageURL = &view.Photos[0].URL
	}
	if a.User != nil {
		view.User = &OwnerView{Name: a.User.Name, Username: a.User.Username}
	}
	return view
}

func (v views) aquariums(ctx context.Context, aquariums []app.Aquarium) []AquariumView {
	out := make([]AquariumView, 0, len(aquariums))
	for i := range aquariums {
		out = append(out, v.aquarium(ctx, &aquariums[i]))
	}
	return out
}
