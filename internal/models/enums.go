package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidFormType = errors.New("invalid form type")
)

// Role is the closed set of employee roles.
type Role string

const (
	RoleUser       Role = "User"
	RoleSupervisor Role = "Supervisor"
	RoleManager    Role = "Manager"
	RoleAdmin      Role = "Admin"
)

// ParseRole accepts only the exact role names.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RoleUser, RoleSupervisor, RoleManager, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// CanEditAnyStatus reports whether the role may edit a project regardless of its status.
func (r Role) CanEditAnyStatus() bool {
	return r == RoleAdmin
}

// CanApproveBestKaizen reports whether the role may toggle the Best Kaizen status.
func (r Role) CanApproveBestKaizen() bool {
	return r.supervisory()
}

// CanViewSubordinates reports whether the role has an approval scope.
func (r Role) CanViewSubordinates() bool {
	return r.supervisory()
}

// AutoApproves reports whether a project of the given form type created by
// this role skips review.
func (r Role) AutoApproves(form FormType) bool {
	return r == RoleManager && (form == FormGenba || form == FormSuggestion)
}

func (r Role) supervisory() bool {
	switch r {
	case RoleSupervisor, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// Status is a project lifecycle state.
type Status string

const (
	StatusEdit       Status = "EDIT"
	StatusWaiting    Status = "WAITING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusDeleted    Status = "DELETED"
	StatusBestKaizen Status = "BEST_KAIZEN"
)

// SubmittedStatuses are the states in which a project counts as submitted.
var SubmittedStatuses = []Status{StatusApproved, StatusWaiting, StatusBestKaizen}

// ParseStatus accepts only the six defined states.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusEdit, StatusWaiting, StatusApproved, StatusRejected, StatusDeleted, StatusBestKaizen:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Submitted reports whether the status counts towards the compliance reports.
func (s Status) Submitted() bool {
	for _, st := range SubmittedStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// FormType classifies how a project was submitted.
type FormType string

const (
	FormGenba      FormType = "genba"
	FormSuggestion FormType = "suggestion"
	FormBestKaizen FormType = "best_kaizen"
)

// ParseFormType accepts only the known form types.
func ParseFormType(raw string) (FormType, error) {
	switch f := FormType(raw); f {
	case FormGenba, FormSuggestion, FormBestKaizen:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormType, raw)
	}
}
