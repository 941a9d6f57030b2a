package models

// AskRequest is the question payload for the ask endpoint.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AnswerSource is one citation in the trail a UI renders next to the answer.
// Excerpt is the cited chunk truncated to a bounded length; Metadata is the
// chunk's original provenance.
type AnswerSource struct {
	SourceType string   `json:"source_type"`
	SourceID   string   `json:"source_id"`
	Excerpt    string   `json:"excerpt"`
	Metadata   Metadata `json:"metadata,omitempty"`
}

// Answer is a grounded response to a course question. Sources preserves
// retrieval order and matches the 1-based context labels given to the model.
type Answer struct {
	Text    string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}
