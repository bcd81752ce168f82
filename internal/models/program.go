package models

import "time"

// Program is one scheduled broadcast on a channel. Optional textual
// fields are normalized to "" rather than left absent, so downstream
// code compares values instead of branching on presence.
type Program struct {
	ID          int64     `json:"id,omitempty"`
	ChannelID   string    `json:"channelId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Title       string    `json:"title"`
	SubTitle    string    `json:"subTitle"`
	Description string    `json:"description"`
	Categories  []string  `json:"categories"`
	IconURL     string    `json:"iconUrl"`
	EpisodeNum  string    `json:"episodeNum"`
	Rating      Rating    `json:"rating"`
}

// Rating is embedded in Program and is always present; sub-fields
// default to "" independently when the feed omits them.
type Rating struct {
	System string `json:"system"`
	Value  string `json:"value"`
	Icon   string `json:"icon"`
}
