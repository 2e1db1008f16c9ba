// Package testing contains test doubles and file helpers shared by package tests.
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ymsync/internal/models"
)

// MockSource is a test double for services.LikedSource that serves a fixed list of tracks.
//
// Tracks are stored newest first, the order Spotify returns them; LikedSince returns the ones newer
// than since, oldest first.
type MockSource struct {
	Tracks []models.Track
	Err    error
}

func (m *MockSource) Name() string { return "mock-spotify" }

func (m *MockSource) LikedSince(ctx context.Context, since *time.Time, pageLimit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	var out []models.Track
	for _, t := range m.Tracks {
		if since != nil && t.AddedAt != nil && !t.AddedAt.After(*since) {
			break
		}
		out = append(out, t)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LikedTracks returns up to limit tracks, newest first. A limit of zero or less returns all of them.
func (m *MockSource) LikedTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && limit < len(m.Tracks) {
		return m.Tracks[:limit], nil
	}
	return m.Tracks, nil
}

// MockTarget is a test double for services.LikeTarget.
//
// Catalog maps a search query to its first result; a missing key means no match.
type MockTarget struct {
	mu      sync.Mutex
	Catalog map[string]models.YandexTrack
	Liked   map[string]struct{}
	InitErr error
	LikeErr error
	Likes   []string
}

func (m *MockTarget) Name() string { return "mock-yandex" }

func (m *MockTarget) Init(ctx context.Context) error { return m.InitErr }

func (m *MockTarget) LikedTrackIDs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]struct{}, len(m.Liked))
	for id := range m.Liked {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *MockTarget) Search(ctx context.Context, query string) (*models.YandexTrack, error) {
	if t, ok := m.Catalog[query]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *MockTarget) Like(ctx context.Context, likeID string) error {
	if m.LikeErr != nil {
		return m.LikeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Liked == nil {
		m.Liked = map[string]struct{}{}
	}
	m.Liked[likeID] = struct{}{}
	m.Likes = append(m.Likes, likeID)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// JSONResponse builds an *http.Response with the given status and body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// Time parses an RFC 3339 timestamp or fails the test.
func Time(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("Failed to parse time %q: %v", s, err)
	}
	return &ts
}
