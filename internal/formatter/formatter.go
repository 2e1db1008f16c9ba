// Package formatter renders liked tracks, sync results and run history as CSV, Markdown or plain text.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/desertthunder/ymsync/internal/state"
	"github.com/desertthunder/ymsync/internal/tasks"
)

// Format names accepted by [WriteTracksExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
)

const timeLayout = "2006-01-02 15:04:05"

// TracksToCSV converts liked tracks to CSV with columns: ID, Name, Artists, Album, Duration, Added At
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "Added At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ArtistLine(),
			track.Album,
			strconv.Itoa(track.DurationMS),
			shared.FormatSpotifyTime(track.AddedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders liked tracks as a numbered Markdown list under title.
func TracksToMarkdown(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, track.String(), albumPart, shared.FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// TracksToText renders liked tracks as plain text, newest like first as Spotify returns them.
func TracksToText(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Liked tracks: %d\n\n", len(tracks))
	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track.String())
		if track.AddedAt != nil {
			fmt.Fprintf(&buf, "   Added: %s\n", track.AddedAt.UTC().Format(timeLayout))
		}
	}

	return buf.Bytes(), nil
}

// WriteTracksExport writes tracks to path in the given format and returns the path written.
//
// An empty path defaults to liked_tracks.{format}.
func WriteTracksExport(tracks []models.Track, path, format string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatCSV:
		data, err = TracksToCSV(tracks)
	case FormatMarkdown:
		data, err = TracksToMarkdown("Spotify liked tracks", tracks)
	case FormatText, "":
		format = FormatText
		data, err = TracksToText(tracks)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if path == "" {
		path = "liked_tracks." + format
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// SyncSummary renders the counters of a finished sync.
func SyncSummary(result *tasks.SyncResult) string {
	var b strings.Builder

	if result.DryRun {
		b.WriteString("Dry run: nothing was liked and the state file was not changed\n")
	}
	fmt.Fprintf(&b, "Processed: %d\n", result.Total)
	fmt.Fprintf(&b, "Added:     %d\n", result.Added)
	if result.DryRun {
		fmt.Fprintf(&b, "Would add: %d\n", result.Planned)
	}
	fmt.Fprintf(&b, "Skipped:   %d\n", result.Skipped)
	fmt.Fprintf(&b, "Not found: %d\n", result.NotFound)
	fmt.Fprintf(&b, "Failed:    %d\n", result.Failed)
	if result.LastAddedAt != nil {
		fmt.Fprintf(&b, "Cursor:    %s\n", shared.FormatSpotifyTime(result.LastAddedAt))
	}

	return b.String()
}

// OutcomesToCSV converts per-track outcomes to CSV.
func OutcomesToCSV(outcomes []models.TrackOutcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Spotify ID", "Track", "Outcome", "Like ID", "Recorded At"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range outcomes {
		record := []string{o.Track.ID, o.Track.SearchQuery(), string(o.Outcome), o.LikeID, o.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryTable renders runs as an aligned table, one row per run.
func HistoryTable(runs []*models.SyncRun) string {
	if len(runs) == 0 {
		return "No sync runs recorded\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tTOTAL\tADDED\tSKIPPED\tNOT FOUND\tFAILED\tDURATION")
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			run.StartedAt.UTC().Format(timeLayout), run.Status,
			run.Total, run.Added, run.Skipped, run.NotFound, run.Failed, duration)
	}
	w.Flush()

	return b.String()
}

// StateText describes a loaded sync state file.
func StateText(path string, exists bool, st *state.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "State file: %s\n", path)
	if !exists {
		b.WriteString("Status:     not created yet (next sync imports every liked track)\n")
	}
	fmt.Fprintf(&b, "Processed:  %d tracks\n", st.Len())

	cursor := shared.FormatSpotifyTime(st.LastAddedAt)
	if cursor == "" {
		cursor = "none"
	}
	fmt.Fprintf(&b, "Cursor:     %s\n", cursor)

	return b.String()
}
