// Package hierarchy computes which employees' records a requester may view.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"kaizen/internal/models"
	"kaizen/internal/storage"
)

var ErrRequesterNotFound = errors.New("hierarchy: requester not found")

// Directory is the employee lookup the resolver needs.
type Directory interface {
	FindEmployee(ctx context.Context, id string) (*models.Employee, error)
	ListByApprover(ctx context.Context, approverID string) ([]string, error)
}

// Resolver resolves approval scopes from the approver relationship.
type Resolver struct {
	dir Directory
}

// NewResolver builds a Resolver over the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Subordinates returns the IDs of employees whose approver is the requester.
// Roles without an approval scope always get an empty set. The requester is
// never part of the result.
func (r *Resolver) Subordinates(ctx context.Context, requesterID string) ([]string, error) {
	requester, err := r.dir.FindEmployee(ctx, requesterID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRequesterNotFound, requesterID)
	}
	if err != nil {
		return nil, fmt.Errorf("hierarchy: find requester: %w", err)
	}
	if !requester.Role.CanViewSubordinates() {
		return []string{}, nil
	}

	ids, err := r.dir.ListByApprover(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: list by approver: %w", err)
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == requesterID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// CanView reports whether ownerID falls inside the requester's approval scope.
func (r *Resolver) CanView(ctx context.Context, requesterID, ownerID string) (bool, error) {
	ids, err := r.Subordinates(ctx, requesterID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == ownerID {
			return true, nil
		}
	}
	return false, nil
}
