// Package biz defines the response envelope and business errors shared by the
// HTTP API, the agent tools and the client.
package biz

// Code is a business result code carried in every response envelope.
type Code int

// Result codes.
const (
	OK               Code = 10000
	AIError          Code = 30000
	AIAgentToolError Code = 30001
	AIChatError      Code = 30002
	TableAgentError  Code = 30003
	SysError         Code = 40000
	UnknownError     Code = 50000
	BizError         Code = 60000
	ValidateError    Code = 70000
)

// Result is the {code, data, message, success} envelope.
type Result[T any] struct {
	Code    Code   `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Success wraps data in an OK envelope.
func Success[T any](data T) Result[T] {
	return Result[T]{Code: OK, Data: data, Message: "success", Success: true}
}

// Fail builds a failed envelope. A zero code defaults to UnknownError and an
// empty message to "error".
func Fail(code Code, message string) Result[any] {
	if code == 0 {
		code = UnknownError
	}
	if message == "" {
		message = "error"
	}
	return Result[any]{Code: code, Message: message}
}

// Validation builds a failed envelope with the ValidateError code.
func Validation(message string) Result[any] {
	if message == "" {
		message = "validateError"
	}
	return Result[any]{Code: ValidateError, Message: message}
}
