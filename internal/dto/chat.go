package dto

import "encoding/json"

type ChatRequest struct {
	UserID string `json:"userId"`
	Query  string `json:"query"`
}

type ChatAction struct {
	Action  string          `json:"action"`
	Target  string          `json:"target,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

type ActionResult struct {
	Status   string `json:"status"`
	Affected int64  `json:"affected"`
	Reason   string `json:"reason,omitempty"`
}

type ChatResponse struct {
	OK           bool         `json:"ok"`
	Reply        string       `json:"reply"`
	Action       *ChatAction  `json:"action"`
	ActionResult ActionResult `json:"actionResult"`
}
