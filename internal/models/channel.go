package models

// Channel is one catalog entry. ChannelID is the feed-assigned business
// key; ID is the surrogate assigned by the store on insert.
type Channel struct {
	ID        int64  `json:"id,omitempty"`
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl"`
}
