package types

import (
	"time"
)

// Message represents one ingested chat message. Score fields are written
// exactly once by the batch scorer; everything else is immutable after
// ingestion. Rows are soft-deleted only.
type Message struct {
	ID             string         `bun:",pk"                    json:"id"`
	ChannelID      string         `bun:",notnull"               json:"channelId"`
	AuthorID       string         `bun:",notnull"               json:"authorId"`
	Text           string         `bun:",notnull"               json:"text"`
	PostedAt       time.Time      `bun:",notnull"               json:"postedAt"`
	ThreadID       string         `bun:",nullzero"              json:"threadId,omitempty"`
	ReactionCounts map[string]int `bun:",type:jsonb"            json:"reactionCounts"`
	SentimentScore float64        `bun:",notnull,default:0"     json:"sentimentScore"`
	Scored         bool           `bun:",notnull,default:false" json:"scored"`
	ScoredAt       *time.Time     `bun:",nullzero"              json:"scoredAt,omitempty"`
	IsDeleted      bool           `bun:",notnull,default:false" json:"isDeleted"`
}

// TotalReactions sums the reaction counts on the message.
func (m *Message) TotalReactions() int {
	total := 0
	for _, count := range m.ReactionCounts {
		total += count
	}

	return total
}

// IsThreadReply reports whether the message is a reply inside someone
// else's thread rather than a thread root or a top-level message.
func (m *Message) IsThreadReply() bool {
	return m.ThreadID != "" && m.ThreadID != m.ID
}
