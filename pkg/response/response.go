package response

// Body is the JSON envelope used by middleware responses.
type Body struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Error(code, message string, details interface{}) Body {
	return Body{
		Code:    code,
		Message: message,
		Details: details,
	}
}
