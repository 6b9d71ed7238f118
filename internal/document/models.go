package document

import (
	"encoding/json"
	"time"
)

// Entry is one stored export: the JSON body exactly as it was received plus
// the time of the write that produced it.
type Entry struct {
	Key       string          `json:"key"`
	Body      json.RawMessage `json:"-"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Summary is the listing view of an entry (no body).
type Summary struct {
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the listing view of e.
func (e *Entry) Summary() Summary {
	return Summary{Key: e.Key, UpdatedAt: e.UpdatedAt}
}
