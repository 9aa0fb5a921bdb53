package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	Data    any      `json:"data"`
	Notices []Notice `json:"notices,omitempty"`
}

// Notice is a user-facing toast emitted while serving the request.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
