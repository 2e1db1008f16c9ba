package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ymsync/internal/models"
)

var _ list.Item = outcomeItem{}

// outcomeItem wraps [models.TrackOutcome] to implement [list.Item].
type outcomeItem struct {
	outcome models.TrackOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Track.String() }
func (i outcomeItem) Title() string       { return i.outcome.Track.String() }
func (i outcomeItem) Description() string {
	desc := string(i.outcome.Outcome)
	if i.outcome.LikeID != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.outcome.LikeID)
	}
	if i.outcome.Track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.outcome.Track.Album)
	}
	return desc
}

// unmatchedItems lists the outcomes that need attention: not found and failed tracks.
func unmatchedItems(outcomes []models.TrackOutcome) []list.Item {
	var items []list.Item
	for _, o := range outcomes {
		if o.Outcome == models.OutcomeNotFound || o.Outcome == models.OutcomeFailed {
			items = append(items, outcomeItem{outcome: o})
		}
	}
	return items
}
