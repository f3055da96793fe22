package serverutils

// Response is the common JSON envelope returned by all endpoints.
type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return SuccessResponseWithCode(200, message, data)
}

// SuccessResponseWithCode keeps the envelope's code field aligned with the
// HTTP status for non-200 successes such as resource creation.
func SuccessResponseWithCode[T any](code int, message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response[any] {
	return Response[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}
