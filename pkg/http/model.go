package http

// APIResponse is the envelope of every JSON answer. The HTTP status is
// always 200; Status carries the logical code.
type APIResponse struct {
	Status  int    `json:"status" example:"200"`
	Message string `json:"message" example:"OK"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty" example:"ERR_MAX"`
	Field   string         `json:"field,omitempty" example:"n"`
	Message string         `json:"message,omitempty" example:"n must be at most 100"`
	Params  map[string]any `json:"params,omitempty"`
}

// ListDataResponse is a page of rows with the total matched.
type ListDataResponse struct {
	Rows  any   `json:"rows"`
	Total int64 `json:"total"`
	Limit int   `json:"limit,omitempty"`
}
