package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/baechuer/tour-eats/internal/domain"
	"github.com/baechuer/tour-eats/internal/logger"
	"github.com/baechuer/tour-eats/middleware"
)

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int) {
	resp := domain.APIError{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.RequestID = middleware.GetRequestID(r.Context())

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// handleAppError maps service errors onto the JSON error envelope. Anything
// that is not an AppError is an internal failure and is logged.
func handleAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if !errors.As(err, &ae) {
		logger.Ctx(r.Context()).Error().Err(err).Msg("unhandled_error")
		sendError(w, r, "internal_error", "internal error", http.StatusInternalServerError)
		return
	}
	sendError(w, r, string(ae.Code), ae.Message, statusFor(ae.Code))
}

func statusFor(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeLocationUnresolved:
		return http.StatusUnprocessableEntity
	case domain.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
