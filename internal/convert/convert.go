// Package convert maps feed-native XMLTV structures to domain entities.
// Conversion is pure: no I/O, no shared state.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/telavision/epgvault/internal/models"
	"github.com/telavision/epgvault/internal/xmltv"
)

// TimeLayout is the fixed XMLTV timestamp format.
const TimeLayout = "20060102150405 -0700"

// Error reports an unconvertible feed value. Timestamp errors are fatal
// to the whole ingestion run; there is no per-program recovery.
type Error struct {
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("convert: %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Channel maps a feed channel to a catalog entry. The feed id becomes
// the business key; a missing icon yields "".
func Channel(m xmltv.Channel) models.Channel {
	iconURL := ""
	if m.Icon != nil {
		iconURL = m.Icon.Src
	}
	return models.Channel{
		ChannelID: m.ID,
		Name:      m.DisplayName.Content,
		IconURL:   iconURL,
	}
}

// Channels converts every feed channel; no record is ever dropped.
func Channels(ms []xmltv.Channel) []models.Channel {
	out := make([]models.Channel, len(ms))
	for i, m := range ms {
		out[i] = Channel(m)
	}
	return out
}

// Program maps a feed programme to a domain entity. Start/stop parse
// failures are returned as *Error. All optional fields default to "";
// the rating value object is always populated, never absent.
func Program(m xmltv.Program) (models.Program, error) {
	start, err := time.Parse(TimeLayout, m.Start)
	if err != nil {
		return models.Program{}, &Error{Field: "start", Value: m.Start, Err: err}
	}
	stop, err := time.Parse(TimeLayout, m.Stop)
	if err != nil {
		return models.Program{}, &Error{Field: "stop", Value: m.Stop, Err: err}
	}

	subTitle := ""
	if len(m.SubTitles) > 0 {
		subTitle = m.SubTitles[0]
	}
	description := ""
	if m.Description != nil {
		description = m.Description.Content
	}
	iconURL := ""
	if len(m.Icons) > 0 {
		iconURL = m.Icons[0].Src
	}
	episodeNum := ""
	if m.EpisodeNum != nil {
		episodeNum = m.EpisodeNum.Content
	}

	var rating models.Rating
	if m.Rating != nil {
		rating.System = m.Rating.System
		if m.Rating.Value != nil {
			rating.Value = m.Rating.Value.Content
		}
		if m.Rating.Icon != nil {
			rating.Icon = m.Rating.Icon.Src
		}
	}

	return models.Program{
		ChannelID:   m.Channel,
		StartTime:   start.UTC(),
		EndTime:     stop.UTC(),
		Title:       m.Title,
		SubTitle:    subTitle,
		Description: description,
		Categories:  categories(m.Categories),
		IconURL:     iconURL,
		EpisodeNum:  episodeNum,
		Rating:      rating,
	}, nil
}

// Programs converts every feed programme, failing on the first
// unparseable timestamp.
func Programs(ms []xmltv.Program) ([]models.Program, error) {
	out := make([]models.Program, len(ms))
	for i, m := range ms {
		p, err := Program(m)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// categories flattens feed categories by joining their text with ", "
// and re-splitting on ",". Feed order is preserved and items lacking
// text come through as empty strings.
func categories(cs []xmltv.Category) []string {
	if len(cs) == 0 {
		return nil
	}
	texts := make([]string, len(cs))
	for i, c := range cs {
		texts[i] = c.Content
	}
	joined := strings.Join(texts, ", ")
	parts := strings.Split(joined, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
