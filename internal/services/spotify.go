// Spotify API implementation of [LikedSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultSpotifyRedirectURI must match a redirect URI registered in the Spotify dashboard.
	DefaultSpotifyRedirectURI = "http://127.0.0.1:8888/callback"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifySavedTrack represents a track saved in the user's library.
//
// Track is a pointer because Spotify returns null for tracks that are no longer available.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// Model converts the saved track to a [models.Track]. Returns false when the item carries no track id.
func (s SpotifySavedTrack) Model() (models.Track, bool) {
	if s.Track == nil || s.Track.ID == "" {
		return models.Track{}, false
	}

	artists := make([]string, 0, len(s.Track.Artists))
	for _, a := range s.Track.Artists {
		artists = append(artists, a.Name)
	}

	return models.Track{
		ID:         s.Track.ID,
		Name:       s.Track.Name,
		Artists:    artists,
		Album:      s.Track.Album.Name,
		DurationMS: s.Track.DurationMS,
		AddedAt:    shared.ParseSpotifyTime(s.AddedAt),
	}, true
}

// SpotifyService reads the user's saved tracks through the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultSpotifyRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"user-library-read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetBaseURL points API requests at url instead of the public Web API.
func (s *SpotifyService) SetBaseURL(url string) {
	s.baseURL = strings.TrimRight(url, "/")
}

// RedirectURI returns the configured OAuth redirect URI.
func (s *SpotifyService) RedirectURI() string {
	return s.config.RedirectURL
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and starts using it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	s.UseToken(ctx, token, nil)
	return token, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.UseToken(ctx, &oauth2.Token{AccessToken: accessToken}, nil)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		_, err := s.Exchange(ctx, authCode)
		return err
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// UseToken authenticates with token. When onRefresh is non-nil it receives every token the
// refresh flow produces, so the caller can persist it.
func (s *SpotifyService) UseToken(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token) error) {
	s.token = token

	var src oauth2.TokenSource = s.config.TokenSource(ctx, token)
	if onRefresh != nil {
		src = &notifyingTokenSource{src: src, last: token.AccessToken, notify: onRefresh}
	}
	s.httpClient = oauth2.NewClient(ctx, src)
}

// LoadCachedToken authenticates from the token cache at path and writes refreshed tokens back to it.
func (s *SpotifyService) LoadCachedToken(ctx context.Context, path string) error {
	token, err := shared.LoadToken(path)
	if err != nil {
		return err
	}
	s.UseToken(ctx, token, func(t *oauth2.Token) error {
		return shared.SaveToken(path, t)
	})
	return nil
}

// notifyingTokenSource reports tokens whose access token differs from the last one seen.
type notifyingTokenSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	last   string
	notify func(*oauth2.Token) error
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := n.src.Token()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if token.AccessToken != n.last {
		n.last = token.AccessToken
		if err := n.notify(token); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return token, nil
}

// doRequest performs an authenticated GET request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return fmt.Errorf("%w: token refresh rejected: %v", shared.ErrAuthFailed, re)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves one page of the user's saved tracks, newest first.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	limit = clampPageLimit(limit)

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// LikedSince pages saved tracks from newest to oldest until it reaches one liked at or before since,
// then returns the newer tracks oldest first. Items without a track id are skipped.
func (s *SpotifyService) LikedSince(ctx context.Context, since *time.Time, pageLimit int) ([]models.Track, error) {
	pageLimit = clampPageLimit(pageLimit)

	var tracks []models.Track
	offset := 0

	for {
		page, err := s.SavedTracks(ctx, pageLimit, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		stop := false
		for _, item := range page.Items {
			track, ok := item.Model()
			if !ok {
				continue
			}
			if since != nil && track.AddedAt != nil && !track.AddedAt.After(*since) {
				stop = true
				break
			}
			tracks = append(tracks, track)
		}

		if stop || len(page.Items) < pageLimit {
			break
		}
		offset += len(page.Items)
	}

	for i, j := 0, len(tracks)-1; i < j; i, j = i+1, j-1 {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
	return tracks, nil
}

// LikedTracks returns up to limit saved tracks, newest first. A limit of zero returns them all.
func (s *SpotifyService) LikedTracks(ctx context.Context, limit int) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for limit <= 0 || len(tracks) < limit {
		page, err := s.SavedTracks(ctx, 50, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if track, ok := item.Model(); ok {
				tracks = append(tracks, track)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func clampPageLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 50:
		return 50
	}
	return limit
}
