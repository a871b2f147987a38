// Package respond writes JSON responses and decodes JSON request bodies for
// the API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/inputval"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string                `json:"error"`
	Message string                `json:"message"`
	Fields  []inputval.FieldError `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Error maps err to a status and JSON body. Internal errors are logged and
// their text is not sent to the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	var fields inputval.Errors
	if errors.As(err, &fields) {
		JSON(w, http.StatusBadRequest, ErrorBody{
			Error:   apperr.KindValidation.Code(),
			Message: fields.Error(),
			Fields:  fields,
		})
		return
	}

	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	JSON(w, kind.Status(), ErrorBody{
		Error:   kind.Code(),
		Message: apperr.Message(err),
	})
}

// Decode reads a JSON body into dst and validates it with inputval.
// Unknown fields and trailing data are rejected.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Wrap(apperr.KindValidation, err, fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return apperr.Validation("request body must contain a single JSON object")
	}
	return inputval.Struct(dst)
}
