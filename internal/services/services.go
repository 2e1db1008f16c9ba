package services

import (
	"context"
	"time"

	"github.com/desertthunder/ymsync/internal/models"
)

// Service is implemented by every music library client.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify", "Yandex Music")
	Name() string
}

// LikedSource is a library whose liked tracks can be read incrementally.
type LikedSource interface {
	Service

	// LikedSince returns tracks liked after since, oldest first. A nil since returns the whole library.
	LikedSince(ctx context.Context, since *time.Time, pageLimit int) ([]models.Track, error)
}

// LikeTarget is a library that tracks can be searched in and liked.
type LikeTarget interface {
	Service

	// Init resolves the account the token belongs to. Must be called before the other methods.
	Init(ctx context.Context) error

	// LikedTrackIDs returns the like ids ("trackId:albumId") already in the collection.
	LikedTrackIDs(ctx context.Context) (map[string]struct{}, error)

	// Search returns the first track matching query, or nil when nothing matches.
	Search(ctx context.Context, query string) (*models.YandexTrack, error)

	// Like adds the track identified by likeID to the collection.
	Like(ctx context.Context, likeID string) error
}
