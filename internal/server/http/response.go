package internalhttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Neamul01/breeze-time-server/internal/app"
	"github.com/Neamul01/breeze-time-server/internal/auth"
	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/Neamul01/breeze-time-server/internal/validator"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const (
	maxBodySize = 1 << 20

	errUnauthorized        = "Unauthorized access denied!"
	errForbiddenToken      = "Forbidden access"
	errForbidden           = "Forbidden access!"
	errInternalServerError = "internal server error"
	errEventNotFound       = "event not found"
	errUserNotFound        = "user not found"
	errNotFound            = "not found"
	errUserExists          = "user already exists"
	errBadBody             = "malformed request body"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		log.Errorf("failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Debugf("failed to write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeError maps domain errors to statuses and messages.
func writeError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, storage.ErrIncorrectDateTime):
		writeMessage(w, http.StatusBadRequest, "dateTime has an "+storage.ErrIncorrectDateTime.Error())
	case errors.Is(err, errBadRequest):
		writeMessage(w, http.StatusBadRequest, errBadBody)
	case errors.Is(err, auth.ErrMissingToken):
		writeMessage(w, http.StatusUnauthorized, errUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		writeMessage(w, http.StatusForbidden, errForbiddenToken)
	case errors.Is(err, app.ErrForbidden):
		writeMessage(w, http.StatusForbidden, errForbidden)
	case errors.Is(err, storage.ErrNotFoundEvent):
		writeMessage(w, http.StatusNotFound, errEventNotFound)
	case errors.Is(err, storage.ErrNotFoundUser):
		writeMessage(w, http.StatusNotFound, errUserNotFound)
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, errNotFound)
	case errors.Is(err, storage.ErrDuplicateUser):
		writeMessage(w, http.StatusConflict, errUserExists)
	default:
		log.Errorf("request failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, errInternalServerError)
	}
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", errBadRequest)
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return validator.Validate(v)
}
