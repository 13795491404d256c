package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/parley/internal/api/response"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/llm"
	"github.com/Rrens/parley/internal/negotiation"
	"github.com/Rrens/parley/internal/service"
)

var validate = validator.New()

// writeError maps service and engine errors onto HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, negotiation.ErrValidation),
		errors.Is(err, llm.ErrUnknownProvider):
		response.BadRequest(w, err.Error())
	case errors.Is(err, llm.ErrProviderNotConfigured):
		response.Unavailable(w, err.Error())
	case errors.Is(err, negotiation.ErrNotFound),
		errors.Is(err, service.ErrNegotiationNotFound),
		errors.Is(err, service.ErrCampaignNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, negotiation.ErrInvalidState),
		errors.Is(err, domain.ErrNegotiationFinalized),
		errors.Is(err, domain.ErrNegotiationConflict),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyMember):
		response.Conflict(w, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}

// bind decodes the JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set.
func bind(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			response.BadRequest(w, "invalid request body")
			return false
		}
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.BadRequest(w, fieldErrors(validationErrors))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

func fieldErrors(validationErrors validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			out[field] = "field is required"
		case "email":
			out[field] = "invalid email format"
		case "min":
			out[field] = "must be at least " + e.Param()
		case "max":
			out[field] = "must be at most " + e.Param()
		case "oneof":
			out[field] = "must be one of: " + e.Param()
		default:
			out[field] = "validation failed on " + e.Tag()
		}
	}
	return out
}
