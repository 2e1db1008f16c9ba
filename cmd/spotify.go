package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ymsync/internal/formatter"
	"github.com/desertthunder/ymsync/internal/server"
	"github.com/desertthunder/ymsync/internal/services"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long SpotifyAuth waits for the browser callback.
const authTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and writes the token to the token cache.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if !creds.Configured() {
		return r.configHint(fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrMissingCredentials))
	}

	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(svc.Exchange, state, svc.RedirectURI())
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callback := server.NewCallbackServer(addr, handler, r.logger)
	if err := callback.Start(); err != nil {
		return err
	}

	authURL := svc.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := callback.Wait(waitCtx)
	if err != nil {
		return err
	}

	if err := shared.SaveToken(creds.TokenCache, token); err != nil {
		return err
	}

	r.logger.Info("spotify token cached", "path", creds.TokenCache)
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", creds.TokenCache)
	r.writePlain("You can now use: ymsync sync --dry-run\n")
	return nil
}

// SpotifyLiked lists liked tracks, optionally exporting them to a file.
func (r *Runner) SpotifyLiked(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	format := cmd.String("format")
	output := cmd.String("output")

	spotify, err := r.spotifyService(ctx)
	if err != nil {
		return r.configHint(err)
	}

	r.logger.Infof("listing spotify liked tracks with limit %v", limit)

	tracks, err := spotify.LikedTracks(ctx, limit)
	if err != nil {
		return r.configHint(err)
	}

	if format != "" || output != "" {
		path, err := formatter.WriteTracksExport(tracks, output, format)
		if err != nil {
			return err
		}
		r.logger.Info("liked tracks exported", "file", path, "tracks", len(tracks))
		return r.writePlain("✓ %d liked tracks exported to %s\n", len(tracks), path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	data, err := formatter.TracksToText(tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
