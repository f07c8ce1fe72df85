package model

import "time"

// ChannelMessage is a single ingested message from a source channel
type ChannelMessage struct {
	Text             string    `json:"text,omitempty"`
	URLs             []string  `json:"urls,omitempty"`
	MediaDescription string    `json:"media_description,omitempty"`
	Timestamp        time.Time `json:"timestamp,omitempty"`
}

// ContentBundle is the raw ingested material for one episode, keyed by
// channel name. It is produced by an asynchronous ingestion job and consumed
// exactly once by the content fetcher.
type ContentBundle struct {
	Results map[string][]ChannelMessage `json:"results"`
}

// IsValid reports whether the bundle holds at least one channel with at
// least one message. An empty bundle parses fine but is not usable input.
func (b *ContentBundle) IsValid() bool {
	if b == nil || len(b.Results) == 0 {
		return false
	}
	for _, messages := range b.Results {
		if len(messages) > 0 {
			return true
		}
	}
	return false
}
