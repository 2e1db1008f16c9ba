package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/shared"
	th "github.com/desertthunder/ymsync/internal/testing"
)

func newTestYandex(t *testing.T, handler http.Handler) (*YandexService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewYandexService(shared.YandexConfig{
		Token:          "ya-token",
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
	}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc, server
}

// yandexMux serves a minimal account with uid 42.
func yandexMux(extra func(mux *http.ServeMux)) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /account/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth ya-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"name":"session-expired","message":"Your OAuth token is invalid"}}`)
			return
		}
		fmt.Fprint(w, `{"result":{"account":{"uid":42,"login":"listener"}}}`)
	})
	if extra != nil {
		extra(mux)
	}
	return mux
}

func TestFlexID(t *testing.T) {
	tt := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{`"123"`, "123", false},
		{`123`, "123", false},
		{`12345678901234`, "12345678901234", false},
		{`null`, "", false},
		{`{}`, "", true},
	}

	for _, tc := range tt {
		t.Run(tc.input, func(t *testing.T) {
			var id flexID
			err := json.Unmarshal([]byte(tc.input), &id)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if string(id) != tc.want {
				t.Errorf("expected %q, got %q", tc.want, id)
			}
		})
	}
}

func TestYandexService(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		_, err := NewYandexService(shared.YandexConfig{}, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Init", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		if err := svc.Init(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.UID() != "42" {
			t.Errorf("expected uid 42, got %q", svc.UID())
		}
	})

	t.Run("Init With Rejected Token", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		svc.token = "wrong"

		err := svc.Init(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !shared.IsConfigError(err) {
			t.Error("rejected token should count as a configuration error")
		}
	})

	t.Run("Calls Before Init", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		if _, err := svc.LikedTrackIDs(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := svc.Like(context.Background(), "1:2"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("LikedTrackIDs", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(func(mux *http.ServeMux) {
			mux.HandleFunc("GET /users/42/likes/tracks", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"result":{"library":{"uid":42,"tracks":[
					{"id":"100","albumId":"200"},
					{"id":101,"albumId":201},
					{"id":"102"}
				]}}}`)
			})
		}))
		if err := svc.Init(context.Background()); err != nil {
			t.Fatalf("init failed: %v", err)
		}

		ids, err := svc.LikedTrackIDs(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("expected 2 ids, got %v", ids)
		}
		for _, want := range []string{"100:200", "101:201"} {
			if _, ok := ids[want]; !ok {
				t.Errorf("expected %s in liked ids", want)
			}
		}
	})

	t.Run("Search", func(t *testing.T) {
		var query string
		svc, _ := newTestYandex(t, yandexMux(func(mux *http.ServeMux) {
			mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query().Get("text")
				if r.URL.Query().Get("type") != "track" || r.URL.Query().Get("page") != "0" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if query == "nobody — nothing" {
					fmt.Fprint(w, `{"result":{"text":"nobody — nothing"}}`)
					return
				}
				fmt.Fprint(w, `{"result":{"tracks":{"total":2,"results":[
					{"id":555,"title":"Song","artists":[{"id":1,"name":"Artist"}],"albums":[{"id":777},{"id":778}],"durationMs":1000},
					{"id":"556","title":"Other","albums":[]}
				]}}}`)
			})
		}))

		track, err := svc.Search(context.Background(), "Artist — Song")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if query != "Artist — Song" {
			t.Errorf("query not passed through, got %q", query)
		}
		if track == nil {
			t.Fatal("expected a track")
		}
		likeID, ok := track.LikeID()
		if !ok || likeID != "555:777" {
			t.Errorf("expected like id 555:777, got %q", likeID)
		}
		if track.String() != "Artist - Song" {
			t.Errorf("unexpected track %q", track.String())
		}

		none, err := svc.Search(context.Background(), "nobody — nothing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if none != nil {
			t.Errorf("expected nil for empty results, got %+v", none)
		}
	})

	t.Run("Like", func(t *testing.T) {
		var form string
		svc, _ := newTestYandex(t, yandexMux(func(mux *http.ServeMux) {
			mux.HandleFunc("POST /users/42/likes/tracks/add-multiple", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				form = r.PostForm.Get("track-ids")
				fmt.Fprint(w, `{"result":{"revision":7}}`)
			})
		}))
		if err := svc.Init(context.Background()); err != nil {
			t.Fatalf("init failed: %v", err)
		}

		if err := svc.Like(context.Background(), "555:777"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if form != "555:777" {
			t.Errorf("expected track-ids=555:777, got %q", form)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tt := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{"server error", http.StatusInternalServerError, `{"error":{"name":"internal"}}`, shared.ErrAPIRequest},
			{"forbidden", http.StatusForbidden, ``, shared.ErrNotAuthenticated},
			{"gateway timeout", http.StatusGatewayTimeout, ``, shared.ErrTimeout},
			{"error envelope with 200", http.StatusOK, `{"error":{"name":"validate","message":"bad"}}`, shared.ErrAPIRequest},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				svc, _ := newTestYandex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					fmt.Fprint(w, tc.body)
				}))

				_, err := svc.Search(context.Background(), "q")
				if !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("Client Timeout", func(t *testing.T) {
		release := make(chan struct{})
		svc, _ := newTestYandex(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer close(release)
		svc.httpClient.Timeout = 50 * time.Millisecond

		_, err := svc.Search(context.Background(), "slow")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := svc.Init(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Service Interface", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		var _ LikeTarget = svc
	})

	t.Run("Transport Failures", func(t *testing.T) {
		tt := []struct {
			name string
			resp *http.Response
			err  error
			want error
		}{
			{"connection refused", nil, errors.New("dial tcp: connection refused"), shared.ErrAPIRequest},
			{"server error", th.JSONResponse(http.StatusInternalServerError, `{"error":{"name":"boom"}}`), nil, shared.ErrAPIRequest},
			{"gateway timeout", th.JSONResponse(http.StatusGatewayTimeout, ``), nil, shared.ErrTimeout},
			{"forbidden", th.JSONResponse(http.StatusForbidden, ``), nil, shared.ErrNotAuthenticated},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				svc, _ := newTestYandex(t, yandexMux(nil))
				svc.SetHTTPClient(&http.Client{Transport: th.NewMockRoundTripper(tc.resp, tc.err)})

				_, err := svc.Search(context.Background(), "anything")
				if !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})

	t.Run("Unreadable Body", func(t *testing.T) {
		svc, _ := newTestYandex(t, yandexMux(nil))
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: http.Header{}}
		svc.SetHTTPClient(&http.Client{Transport: th.NewMockRoundTripper(resp, nil)})

		if _, err := svc.Search(context.Background(), "anything"); err == nil {
			t.Error("expected decode error")
		}
	})
}
