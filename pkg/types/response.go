package types

// SuccessEnvelope wraps every 2xx body so availability, subscription and
// notification responses all read the same way: {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Code carries the machine
// code (VALIDATION, CONFLICT, ...), Details is only populated for codes
// that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body: {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
