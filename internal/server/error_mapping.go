package server

import (
	"errors"
	"net/http"

	"kaizen/internal/auth"
	"kaizen/internal/employee"
	"kaizen/internal/hierarchy"
	"kaizen/internal/models"
	"kaizen/internal/project"
	"kaizen/internal/query"
	"kaizen/internal/report"
	"kaizen/internal/storage"
	"kaizen/internal/workflow"
)

var (
	errBadRequest  = errors.New("bad request")
	errNotFound    = errors.New("endpoint not found")
	errRateLimited = errors.New("too many requests")
)

const internalMessage = "internal server error"

// statusFor maps an error onto the HTTP status and the message shown to the
// client. Anything unrecognised is a 500 with a fixed message.
func statusFor(err error) (int, string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized

	case errors.Is(err, auth.ErrInsufficientRole),
		errors.Is(err, project.ErrForbidden),
		errors.Is(err, employee.ErrForbidden),
		errors.Is(err, workflow.ErrEditForbidden),
		errors.Is(err, workflow.ErrBestKaizenForbidden):
		status = http.StatusForbidden

	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, project.ErrOwnerNotFound),
		errors.Is(err, employee.ErrNotFound),
		errors.Is(err, employee.ErrApproverNotFound),
		errors.Is(err, hierarchy.ErrRequesterNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, errNotFound):
		status = http.StatusNotFound

	case errors.Is(err, employee.ErrDuplicate),
		errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict

	case errors.Is(err, errBadRequest),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, employee.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidFormType),
		errors.Is(err, query.ErrInvalidPageSize),
		errors.Is(err, report.ErrInvalidYear),
		errors.Is(err, report.ErrInvalidMonth):
		status = http.StatusBadRequest

	case errors.Is(err, errRateLimited):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		return status, internalMessage
	}
	return status, err.Error()
}
