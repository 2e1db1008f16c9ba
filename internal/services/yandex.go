// Yandex Music API implementation of [LikeTarget]
//
// Response shapes follow the unofficial api.music.yandex.net endpoints: every body is an envelope
// with either a "result" or an "error" member.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYandexBaseURL = "https://api.music.yandex.net"
	yandexClientHeader   = "YandexMusicAndroid/24023621"
)

// flexID decodes an identifier that the API sends either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type yandexEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *yandexError    `json:"error"`
}

type yandexError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *yandexError) String() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// YandexAccount is the account block of /account/status.
type YandexAccount struct {
	UID   flexID `json:"uid"`
	Login string `json:"login"`
}

type yandexStatus struct {
	Account YandexAccount `json:"account"`
}

// YandexLike is one entry of the liked-tracks library.
type YandexLike struct {
	ID      flexID `json:"id"`
	AlbumID flexID `json:"albumId"`
}

type yandexLikes struct {
	Library struct {
		Tracks []YandexLike `json:"tracks"`
	} `json:"library"`
}

// YandexArtist is an artist in a search result.
type YandexArtist struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
}

// YandexAlbum is an album in a search result.
type YandexAlbum struct {
	ID    flexID `json:"id"`
	Title string `json:"title"`
}

// YandexSearchTrack is a track in a search result.
type YandexSearchTrack struct {
	ID         flexID         `json:"id"`
	Title      string         `json:"title"`
	Artists    []YandexArtist `json:"artists"`
	Albums     []YandexAlbum  `json:"albums"`
	DurationMS int            `json:"durationMs"`
}

// Model converts the search result to a [models.YandexTrack].
func (t YandexSearchTrack) Model() models.YandexTrack {
	out := models.YandexTrack{ID: string(t.ID), Title: t.Title, DurationMS: t.DurationMS}
	for _, a := range t.Artists {
		out.Artists = append(out.Artists, a.Name)
	}
	for _, a := range t.Albums {
		out.AlbumIDs = append(out.AlbumIDs, string(a.ID))
	}
	return out
}

type yandexSearch struct {
	Tracks *struct {
		Total   int                 `json:"total"`
		Results []YandexSearchTrack `json:"results"`
	} `json:"tracks"`
}

// YandexService likes tracks in a Yandex Music account.
type YandexService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	uid        string
}

// NewYandexService creates a client from the [credentials.yandex] config section.
func NewYandexService(cfg shared.YandexConfig, logger *log.Logger) (*YandexService, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: yandex music token is not set", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &YandexService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "service", "yandex"),
	}, nil
}

func (y *YandexService) Name() string {
	return "Yandex Music"
}

// SetHTTPClient replaces the transport client, mostly for tests.
func (y *YandexService) SetHTTPClient(c *http.Client) {
	y.httpClient = c
}

// UID returns the account id resolved by [YandexService.Init].
func (y *YandexService) UID() string {
	return y.uid
}

// Init resolves the account uid for the token.
func (y *YandexService) Init(ctx context.Context) error {
	var status yandexStatus
	if err := y.do(ctx, http.MethodGet, "/account/status", nil, &status); err != nil {
		return err
	}
	if status.Account.UID == "" {
		return fmt.Errorf("%w: token has no associated account", shared.ErrNotAuthenticated)
	}

	y.uid = string(status.Account.UID)
	y.logger.Debug("account resolved", "uid", y.uid, "login", status.Account.Login)
	return nil
}

// LikedTrackIDs returns the "trackId:albumId" ids in the liked collection.
//
// Entries missing either part are ignored.
func (y *YandexService) LikedTrackIDs(ctx context.Context) (map[string]struct{}, error) {
	if y.uid == "" {
		return nil, fmt.Errorf("%w: call Init first", shared.ErrNotAuthenticated)
	}

	var likes yandexLikes
	endpoint := "/users/" + url.PathEscape(y.uid) + "/likes/tracks"
	if err := y.do(ctx, http.MethodGet, endpoint, nil, &likes); err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(likes.Library.Tracks))
	for _, like := range likes.Library.Tracks {
		if like.ID == "" || like.AlbumID == "" {
			continue
		}
		ids[string(like.ID)+":"+string(like.AlbumID)] = struct{}{}
	}
	return ids, nil
}

// Search returns the first track result for query, or nil when there is none.
func (y *YandexService) Search(ctx context.Context, query string) (*models.YandexTrack, error) {
	params := url.Values{}
	params.Set("text", query)
	params.Set("type", "track")
	params.Set("page", "0")
	params.Set("nocorrect", "false")

	var result yandexSearch
	if err := y.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}

	if result.Tracks == nil || len(result.Tracks.Results) == 0 {
		return nil, nil
	}

	track := result.Tracks.Results[0].Model()
	return &track, nil
}

// Like adds likeID ("trackId:albumId") to the liked collection.
func (y *YandexService) Like(ctx context.Context, likeID string) error {
	if y.uid == "" {
		return fmt.Errorf("%w: call Init first", shared.ErrNotAuthenticated)
	}

	form := url.Values{}
	form.Set("track-ids", likeID)

	endpoint := "/users/" + url.PathEscape(y.uid) + "/likes/tracks/add-multiple"
	return y.do(ctx, http.MethodPost, endpoint, form, nil)
}

// do sends one rate-limited request and decodes the "result" member into result.
func (y *YandexService) do(ctx context.Context, method, endpoint string, form url.Values, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+y.token)
	req.Header.Set("X-Yandex-Music-Client", yandexClientHeader)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", shared.ErrTimeout, method, endpoint)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var env yandexEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: yandex music rejected the token (status %d)", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: yandex music status %d", shared.ErrTimeout, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		if decodeErr == nil && env.Error != nil {
			return fmt.Errorf("%w: yandex music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, env.Error)
		}
		return fmt.Errorf("%w: yandex music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if decodeErr != nil {
		if isTimeout(decodeErr) {
			return fmt.Errorf("%w: reading %s", shared.ErrTimeout, endpoint)
		}
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if env.Error != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, env.Error)
	}

	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
