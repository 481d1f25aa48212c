package models

// Result is the envelope of every API response.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](message string, data T) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope.
func Fail(message string) Result[any] {
	return Result[any]{Success: false, Message: message}
}
