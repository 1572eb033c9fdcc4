package api

// StartRequest is the JSON body for POST /api/start. Zero thresholds fall
// back to the server's configured defaults.
type StartRequest struct {
	Prompt             string  `json:"prompt"`
	PrimaryThreshold   float64 `json:"primary_threshold,omitempty"`
	SecondaryThreshold float64 `json:"secondary_threshold,omitempty"`
}

// SpinRequest is the JSON body for POST /api/spin.
type SpinRequest struct {
	SessionID string `json:"session_id"`
}

// LandRequest is the JSON body for POST /api/land. Angle is a pointer so a
// landing at 0 degrees is distinguishable from an absent field.
type LandRequest struct {
	SessionID string   `json:"session_id"`
	Angle     *float64 `json:"angle"`
}

// SelectRequest is the JSON body for POST /api/select. TokenID is a pointer
// so token id 0 is distinguishable from an absent field.
type SelectRequest struct {
	SessionID string `json:"session_id"`
	TokenID   *int   `json:"token_id"`
}

// HealthResponse is the JSON response for GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	VocabSize int    `json:"vocab_size"`
	Sessions  int    `json:"sessions"`
}

// DeleteResponse is the JSON response for DELETE /api/session/{id}.
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
