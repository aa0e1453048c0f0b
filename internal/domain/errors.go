package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation         ErrCode = "validation_error"
	CodeNotFound           ErrCode = "not_found"
	CodeLocationUnresolved ErrCode = "location_unresolved"
	CodeUpstream           ErrCode = "upstream_error"
)

type AppError struct {
	Code    ErrCode
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrNotFound(msg string) error   { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrUpstream(msg string) error   { return &AppError{Code: CodeUpstream, Message: msg} }

// ErrLocationUnresolved aborts a single explore run when the selected
// attraction's address cannot be geocoded.
var ErrLocationUnresolved = &AppError{Code: CodeLocationUnresolved, Message: "could not resolve coordinates for the selected attraction"}

// CodeOf returns the AppError code carried by err, or "" when err is not one.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
