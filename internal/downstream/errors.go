package downstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrTimeout     = errors.New("downstream_timeout")
	ErrUnavailable = errors.New("downstream_unavailable")
	ErrNotFound    = errors.New("resource_not_found")
	ErrTooLarge    = errors.New("downstream_response_too_large")
)

// StatusError is a refusal reported by an upstream API, either through the
// HTTP status or through a status field in an otherwise successful body.
type StatusError struct {
	Upstream   string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error [%d] %s: %s", e.Upstream, e.StatusCode, e.Code, e.Message)
}

// naverError is the body Naver open APIs send with non-2xx responses.
type naverError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

func decodeNaverError(resp *Response) error {
	var apiErr naverError
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil && apiErr.ErrorCode != "" {
		return &StatusError{
			Upstream:   upstreamNaver,
			StatusCode: resp.StatusCode,
			Code:       apiErr.ErrorCode,
			Message:    apiErr.ErrorMessage,
		}
	}
	return &StatusError{
		Upstream:   upstreamNaver,
		StatusCode: resp.StatusCode,
		Code:       "downstream_error",
		Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
	}
}
