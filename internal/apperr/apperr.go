package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/skischeduler/pkg"

	log "github.com/sirupsen/logrus"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// Validation returns an error wrapping ErrValidation
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound, e.g. NotFound("exercise")
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Storage wraps err as a storage failure, keeping the cause in the chain
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is what the client gets to see; storage and unknown errors are not exposed
func Message(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return "internal server error"
	}
}

// WriteResponse writes err as a {"message": ...} body with its status code
func WriteResponse(w http.ResponseWriter, err error) {
	statusCode := StatusCode(err)
	if statusCode >= http.StatusInternalServerError {
		log.Errorf("request failed [%d]: %s", statusCode, err)
	} else {
		log.Tracef("request rejected [%d]: %s", statusCode, err)
	}
	pkg.WriteJSONMessage(w, Message(err), statusCode)
}
