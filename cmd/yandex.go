package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/ymsync/internal/services"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// yandexReady returns an initialized Yandex Music client.
func (r *Runner) yandexReady(ctx context.Context) (services.LikeTarget, error) {
	yandex, err := r.yandexService()
	if err != nil {
		return nil, err
	}
	if err := yandex.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", yandex.Name(), err)
	}
	return yandex, nil
}

// YandexLikes reports the liked tracks of the Yandex Music account.
func (r *Runner) YandexLikes(ctx context.Context, cmd *cli.Command) error {
	yandex, err := r.yandexReady(ctx)
	if err != nil {
		return r.configHint(err)
	}

	liked, err := yandex.LikedTrackIDs(ctx)
	if err != nil {
		return r.configHint(err)
	}

	if cmd.Bool("json") {
		ids := make([]string, 0, len(liked))
		for id := range liked {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return r.writeJSON(ids, true)
	}

	return r.writePlain("%s has %d liked tracks\n", yandex.Name(), len(liked))
}

// YandexSearch shows the first search result for a query, the same match sync would use.
func (r *Runner) YandexSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	yandex, err := r.yandexReady(ctx)
	if err != nil {
		return r.configHint(err)
	}

	r.logger.Info("searching yandex music", "query", query)

	track, err := yandex.Search(ctx, query)
	if err != nil {
		return r.configHint(err)
	}

	if track == nil {
		if cmd.Bool("json") {
			return r.writeJSON(nil, false)
		}
		return r.writePlain("No match for %q\n", query)
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	r.writePlain("Match: %s\n", track.String())
	if likeID, ok := track.LikeID(); ok {
		r.writePlain("Like ID: %s\n", likeID)
	} else {
		r.writePlain("Like ID: unavailable (track has no album)\n")
	}
	return nil
}
