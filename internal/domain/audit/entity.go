package audit

import "time"

// RecordID identifier type
type RecordID string

// Record is a write-only trace of one analysis call. It is never read back to serve a
// request; follow-up context always comes from the caller.
type Record struct {
	ID         RecordID  `json:"id"`
	RequestID  string    `json:"request_id"`
	Mode       string    `json:"mode"`
	ImageCount int       `json:"image_count"`
	Outcome    string    `json:"outcome"` // success or an error kind
	Detail     string    `json:"detail,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	DurationMS int64     `json:"duration_ms"`
	Result     string    `json:"result,omitempty"` // validated result JSON
	CreatedAt  time.Time `json:"created_at"`
}

const OutcomeSuccess = "success"
