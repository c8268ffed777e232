package models

// Requests for the dashboard HTTP endpoints. Defined in domain for reuse.

type WindowRequest struct {
	Stream string `param:"stream" json:"stream" validate:"required,stream"`
}

type LatestRequest struct {
	Stream string `param:"stream" json:"stream" validate:"required,stream"`
	N      int    `query:"n" json:"n" default:"10" validate:"gte=1,lte=10000"`
}

type HistoryRequest struct {
	Stream string `query:"stream" json:"stream" validate:"required,stream"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type InsightsRequest struct {
	Fresh bool `query:"fresh" json:"fresh"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Service string         `json:"service"`
	Backend string         `json:"backend"`
	Uptime  string         `json:"uptime"`
	Streams []StreamStatus `json:"streams"`
	History bool           `json:"history"`
	LLM     bool           `json:"llm"`
}
