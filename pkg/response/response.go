package response

// Response is the uniform JSON envelope for error payloads.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Error(code, message string, data any) Response {
	return Response{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func Success(message string, data any) Response {
	return Response{
		Code:    "OK",
		Message: message,
		Data:    data,
	}
}
