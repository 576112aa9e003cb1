// Package workflow holds the project status state machine and its role gates.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"kaizen/internal/models"
)

// DisplayDateLayout is the human readable submission date format.
const DisplayDateLayout = "02/01/2006"

var (
	ErrEditForbidden       = errors.New("project: edit not permitted")
	ErrBestKaizenForbidden = errors.New("project: best kaizen requires a supervisory role")
	ErrIllegalTransition   = errors.New("project: illegal status transition")
)

// Change describes the side effects of a status transition.
type Change struct {
	Status          models.Status
	ResetSubmission bool
	SubmittedAt     time.Time
	SubmittedDate   string
}

// InitialStatus returns the status a freshly created project starts in.
func InitialStatus(role models.Role, form models.FormType) models.Status {
	if role.AutoApproves(form) {
		return models.StatusApproved
	}
	return models.StatusEdit
}

// IsStatusOnly reports whether an update touches the status field and nothing else.
func IsStatusOnly(fields []string) bool {
	return len(fields) == 1 && fields[0] == "status"
}

// AuthorizeEdit decides whether a field update may be applied to a project in
// the current status.
func AuthorizeEdit(role models.Role, current models.Status, fields []string) error {
	switch {
	case role.CanEditAnyStatus():
		return nil
	case IsStatusOnly(fields):
		return nil
	case current == models.StatusWaiting:
		return nil
	}
	return fmt.Errorf("%w: cannot edit project in status %s as %s", ErrEditForbidden, current, role)
}

// ChangeStatus validates a status change requested through a field update.
// The submission stamp is taken from now, whose location decides the display
// date. Re-sending the current status keeps the existing stamp.
func ChangeStatus(role models.Role, current, next models.Status, now time.Time) (Change, error) {
	if _, err := models.ParseStatus(string(next)); err != nil {
		return Change{}, err
	}

	switch next {
	case models.StatusDeleted:
		return Change{}, fmt.Errorf("%w: use delete to remove a project", ErrIllegalTransition)
	case models.StatusBestKaizen:
		if _, err := ApproveBestKaizen(role, current); err != nil {
			return Change{}, err
		}
	}

	change := Change{Status: next}
	if next != current && (next == models.StatusWaiting || next == models.StatusApproved) {
		change.ResetSubmission = true
		change.SubmittedAt = now.UTC()
		change.SubmittedDate = now.Format(DisplayDateLayout)
	}
	return change, nil
}

// ApproveBestKaizen promotes an approved project to Best Kaizen.
func ApproveBestKaizen(role models.Role, current models.Status) (models.Status, error) {
	if !role.CanApproveBestKaizen() {
		return "", fmt.Errorf("%w: role %s", ErrBestKaizenForbidden, role)
	}
	if current != models.StatusApproved && current != models.StatusBestKaizen {
		return "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, models.StatusBestKaizen)
	}
	return models.StatusBestKaizen, nil
}

// RemoveBestKaizen always returns a project to APPROVED. The prior state is
// not tracked; ApproveBestKaizen only admits APPROVED projects, so this is the
// state the project held before promotion.
func RemoveBestKaizen(role models.Role, current models.Status) (models.Status, error) {
	if !role.CanApproveBestKaizen() {
		return "", fmt.Errorf("%w: role %s", ErrBestKaizenForbidden, role)
	}
	if current == models.StatusDeleted {
		return "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, models.StatusApproved)
	}
	return models.StatusApproved, nil
}

// Delete soft-deletes a project. The row is kept with status DELETED.
func Delete(current models.Status) (models.Status, error) {
	if current == models.StatusDeleted {
		return "", fmt.Errorf("%w: project already deleted", ErrIllegalTransition)
	}
	return models.StatusDeleted, nil
}
