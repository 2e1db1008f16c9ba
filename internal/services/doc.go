// Package services implements the clients for the two music libraries ymsync bridges.
//
// # Spotify
//
// [SpotifyService] uses OAuth2 (authorization code flow, scope user-library-read) with automatic
// token refresh. Tokens are cached on disk; a refreshed token is written back to the cache so the
// next run starts authenticated. [SpotifyService.LikedSince] pages the saved-tracks endpoint from
// newest to oldest and stops at the first track at or before the cursor.
//
// # Yandex Music
//
// [YandexService] talks to api.music.yandex.net with an "OAuth <token>" header. Requests pass
// through a [rate.Limiter] and a client timeout; timeouts surface as [shared.ErrTimeout] so the
// sync engine can retry them.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : client id, secret or token not configured
//   - [shared.ErrNotAuthenticated] : no token, or Yandex rejected it
//   - [shared.ErrTokenExpired] : Spotify returned 401
//   - [shared.ErrAuthFailed] : the OAuth token endpoint rejected a refresh or exchange
//   - [shared.ErrTimeout] : request timed out
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
