package repositories

import (
	"errors"
	"strings"

	"github.com/desertthunder/ymsync/internal/shared"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

// encodeArtists stores an artist list as a JSON array.
func encodeArtists(artists []string) string {
	if len(artists) == 0 {
		return "[]"
	}
	data, err := shared.MarshalJSON(artists, false)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeArtists(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil
	}
	var artists []string
	if err := shared.UnmarshalJSON([]byte(s), &artists); err != nil {
		return []string{s}
	}
	return artists
}

// limitClause appends a LIMIT when criteria carries a positive "limit".
func limitClause(query string, args []any, criteria map[string]any) (string, []any) {
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return query, args
}
