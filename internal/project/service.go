// Package project implements the Kaizen project use cases on top of the
// workflow engine, the hierarchy resolver and the record store.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"kaizen/internal/blob"
	"kaizen/internal/models"
	"kaizen/internal/query"
	"kaizen/internal/storage"
	"kaizen/internal/workflow"
)

var (
	ErrNotFound      = errors.New("project: not found")
	ErrForbidden     = errors.New("project: forbidden")
	ErrInvalidInput  = errors.New("project: invalid input")
	ErrOwnerNotFound = errors.New("project: owner not found")
)

// Repository is the project record store.
type Repository interface {
	Insert(ctx context.Context, p models.Project) (models.Project, error)
	FindByID(ctx context.Context, id int64) (models.Project, error)
	Update(ctx context.Context, id int64, patch storage.Patch) (models.Project, error)
	Find(ctx context.Context, q query.Query) ([]models.Project, int, error)
}

// Employees looks up project owners.
type Employees interface {
	FindEmployee(ctx context.Context, id string) (*models.Employee, error)
}

// Scope answers approval scope questions for a requester.
type Scope interface {
	Subordinates(ctx context.Context, requesterID string) ([]string, error)
	CanView(ctx context.Context, requesterID, ownerID string) (bool, error)
}

// Observer is notified about every persisted status transition.
type Observer interface {
	StatusChanged(from, to models.Status)
}

// CreateInput carries the fields of a new project. Image fields hold base64
// payloads and may be empty.
type CreateInput struct {
	EmployeeID         string
	ProjectName        string
	ProjectArea        string
	GroupName          string
	StartDate          string
	EndDate            string
	ProblemDescription string
	Solution           string
	Results            string
	FiveSType          string
	FiveSArea          string
	ImprovementTopic   string
	SGSSmart           string
	SGSGreen           string
	SGSSafety          string
	FormType           string
	BeforeImage        string
	AfterImage         string
}

// Page is one page of a project listing.
type Page struct {
	Items      []models.Project `json:"items"`
	Pagination query.Pagination `json:"pagination"`
}

// Service implements the project use cases.
type Service struct {
	repo      Repository
	employees Employees
	scope     Scope
	blobs     blob.Storage
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
	maxImage  int
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver registers a status transition observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone submission display dates are written in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxImageBytes caps decoded image payloads.
func WithMaxImageBytes(n int) Option {
	return func(s *Service) { s.maxImage = n }
}

// NewService wires the project use cases.
func NewService(repo Repository, employees Employees, scope Scope, blobs blob.Storage, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		employees: employees,
		scope:     scope,
		blobs:     blobs,
		logger:    logger,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new project owned by the requester, or by another
// employee when the requester is an Admin.
func (s *Service) Create(ctx context.Context, id models.Identity, in CreateInput) (models.Project, error) {
	name := strings.TrimSpace(in.ProjectName)
	if name == "" {
		return models.Project{}, fmt.Errorf("%w: projectName is required", ErrInvalidInput)
	}
	form, err := models.ParseFormType(in.FormType)
	if err != nil {
		return models.Project{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ownerID := id.EmployeeID
	if in.EmployeeID != "" && in.EmployeeID != id.EmployeeID {
		if !id.IsAdmin() {
			return models.Project{}, fmt.Errorf("%w: only an admin may create projects for another employee", ErrForbidden)
		}
		ownerID = in.EmployeeID
	}

	owner, err := s.employees.FindEmployee(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Project{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("project: find owner: %w", err)
	}
	if !owner.Active {
		return models.Project{}, fmt.Errorf("%w: employee %s is inactive", ErrInvalidInput, ownerID)
	}

	clock := s.now()
	now := clock.UTC()
	p := models.Project{
		EmployeeID:         owner.ID,
		Department:         owner.Department,
		ProjectName:        name,
		ProjectArea:        in.ProjectArea,
		GroupName:          in.GroupName,
		StartDate:          NormalizeDate(in.StartDate),
		EndDate:            NormalizeDate(in.EndDate),
		ProblemDescription: in.ProblemDescription,
		Solution:           in.Solution,
		Results:            in.Results,
		FiveSType:          in.FiveSType,
		FiveSArea:          in.FiveSArea,
		ImprovementTopic:   in.ImprovementTopic,
		SGSSmart:           in.SGSSmart,
		SGSGreen:           in.SGSGreen,
		SGSSafety:          in.SGSSafety,
		FormType:           form,
		Status:             workflow.InitialStatus(id.Role, form),
		CreatedAt:          now,
	}
	if p.Status == models.StatusApproved {
		p.SubmittedAt = &now
		p.SubmittedDate = clock.In(s.loc).Format(workflow.DisplayDateLayout)
	}

	created, err := s.repo.Insert(ctx, p)
	if err != nil {
		return models.Project{}, s.translate(err)
	}

	// Images are attached after the row exists. A failure here leaves the
	// project without its image URL.
	patch := storage.Patch{}
	for field, payload := range map[string]string{FieldBeforeImage: in.BeforeImage, FieldAfterImage: in.AfterImage} {
		if payload == "" {
			continue
		}
		if url, ok := s.storeImage(ctx, created.ID, field, payload); ok {
			patch[columns[field]] = url
		}
	}
	if len(patch) == 0 {
		return created, nil
	}
	updated, err := s.repo.Update(ctx, created.ID, patch)
	if err != nil {
		s.logger.Warn("attach images failed", slog.Int64("project_id", created.ID), slog.String("error", err.Error()))
		return created, nil
	}
	return updated, nil
}

// Get returns a project visible to the requester.
func (s *Service) Get(ctx context.Context, id models.Identity, projectID int64) (models.Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if err := s.authorizeView(ctx, id, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// List returns the requester's own projects. Admins may list everyone's.
func (s *Service) List(ctx context.Context, id models.Identity, p query.Params) (Page, error) {
	if !id.IsAdmin() {
		p.EmployeeID = id.EmployeeID
	}
	p.Scope, p.Scoped = nil, false
	return s.find(ctx, p)
}

// ListTeam returns the projects of the requester's subordinates.
func (s *Service) ListTeam(ctx context.Context, id models.Identity, p query.Params) (Page, error) {
	ids, err := s.scope.Subordinates(ctx, id.EmployeeID)
	if err != nil {
		return Page{}, err
	}
	p.Scope, p.Scoped = ids, true
	return s.find(ctx, p)
}

// Update applies a partial update keyed by public field names.
func (s *Service) Update(ctx context.Context, id models.Identity, projectID int64, payload map[string]json.RawMessage) (models.Project, error) {
	if len(payload) == 0 {
		return models.Project{}, fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	fields := make([]string, 0, len(payload))
	for field := range payload {
		if _, ok := Column(field); !ok {
			return models.Project{}, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, field)
		}
		if immutableFields[field] {
			return models.Project{}, fmt.Errorf("%w: field %q cannot be changed", ErrInvalidInput, field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	current, err := s.load(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	reviewer, err := s.authorizeUpdate(ctx, id, current, fields)
	if err != nil {
		return models.Project{}, err
	}
	if err := workflow.AuthorizeEdit(id.Role, current.Status, fields); err != nil {
		return models.Project{}, err
	}

	patch := storage.Patch{}
	images := map[string]*string{}
	for _, field := range fields {
		raw := payload[field]
		switch {
		case field == FieldStatus:
			next, err := decodeString(field, raw)
			if err != nil {
				return models.Project{}, err
			}
			if err := s.applyStatus(id, reviewer, current.Status, models.Status(next), patch); err != nil {
				return models.Project{}, err
			}
		case field == FieldFormType:
			v, err := decodeString(field, raw)
			if err != nil {
				return models.Project{}, err
			}
			form, err := models.ParseFormType(v)
			if err != nil {
				return models.Project{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			patch[columns[field]] = string(form)
		case imageSlots[field] != "":
			v, err := decodeNullable(field, raw)
			if err != nil {
				return models.Project{}, err
			}
			images[field] = v
		default:
			v, err := decodeString(field, raw)
			if err != nil {
				return models.Project{}, err
			}
			if field == FieldProjectName && strings.TrimSpace(v) == "" {
				return models.Project{}, fmt.Errorf("%w: projectName must not be empty", ErrInvalidInput)
			}
			if dateFields[field] {
				v = NormalizeDate(v)
			}
			patch[columns[field]] = v
		}
	}

	// Image side effects run before the row update and never fail it.
	for _, field := range sortedKeys(images) {
		s.applyImage(ctx, current, field, images[field], patch)
	}

	if len(patch) == 0 {
		return current, nil
	}
	updated, err := s.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return models.Project{}, s.translate(err)
	}
	s.notify(current.Status, updated.Status)
	return updated, nil
}

// Delete soft-deletes a project owned by the requester.
func (s *Service) Delete(ctx context.Context, id models.Identity, projectID int64) error {
	current, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}
	if current.EmployeeID != id.EmployeeID && !id.IsAdmin() {
		return fmt.Errorf("%w: only the owner or an admin may delete project %d", ErrForbidden, projectID)
	}
	next, err := workflow.Delete(current.Status)
	if err != nil {
		return err
	}
	if _, err := s.repo.Update(ctx, current.ID, storage.Patch{"status": string(next)}); err != nil {
		return s.translate(err)
	}
	s.notify(current.Status, next)
	return nil
}

// ApproveBestKaizen promotes an approved project to Best Kaizen.
func (s *Service) ApproveBestKaizen(ctx context.Context, id models.Identity, projectID int64) (models.Project, error) {
	return s.transition(ctx, projectID, func(current models.Status) (models.Status, error) {
		return workflow.ApproveBestKaizen(id.Role, current)
	})
}

// RemoveBestKaizen returns a project to APPROVED.
func (s *Service) RemoveBestKaizen(ctx context.Context, id models.Identity, projectID int64) (models.Project, error) {
	return s.transition(ctx, projectID, func(current models.Status) (models.Status, error) {
		return workflow.RemoveBestKaizen(id.Role, current)
	})
}

func (s *Service) transition(ctx context.Context, projectID int64, next func(models.Status) (models.Status, error)) (models.Project, error) {
	current, err := s.load(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	status, err := next(current.Status)
	if err != nil {
		return models.Project{}, err
	}
	if status == current.Status {
		return current, nil
	}
	updated, err := s.repo.Update(ctx, current.ID, storage.Patch{"status": string(status)})
	if err != nil {
		return models.Project{}, s.translate(err)
	}
	s.notify(current.Status, status)
	return updated, nil
}

func (s *Service) find(ctx context.Context, p query.Params) (Page, error) {
	q, err := query.Assemble(p)
	if err != nil {
		return Page{}, err
	}
	if q.Empty() {
		return Page{Items: []models.Project{}, Pagination: query.NewPagination(q.Page, q.Limit, 0)}, nil
	}
	items, total, err := s.repo.Find(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("project: find: %w", err)
	}
	if items == nil {
		items = []models.Project{}
	}
	return Page{Items: items, Pagination: query.NewPagination(q.Page, q.Limit, total)}, nil
}

// load fetches a project and hides soft-deleted rows.
func (s *Service) load(ctx context.Context, projectID int64) (models.Project, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return models.Project{}, s.translate(err)
	}
	if p.Status == models.StatusDeleted {
		return models.Project{}, fmt.Errorf("%w: %d", ErrNotFound, projectID)
	}
	return p, nil
}

func (s *Service) authorizeView(ctx context.Context, id models.Identity, p models.Project) error {
	if p.EmployeeID == id.EmployeeID || id.IsAdmin() {
		return nil
	}
	ok, err := s.inScope(ctx, id, p.EmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: project %d is outside your scope", ErrForbidden, p.ID)
	}
	return nil
}

// authorizeUpdate reports whether the requester acts as a reviewer of the
// project owner.
func (s *Service) authorizeUpdate(ctx context.Context, id models.Identity, p models.Project, fields []string) (bool, error) {
	if id.IsAdmin() {
		return true, nil
	}
	if p.EmployeeID == id.EmployeeID {
		return false, nil
	}
	ok, err := s.inScope(ctx, id, p.EmployeeID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: project %d is outside your scope", ErrForbidden, p.ID)
	}
	if !workflow.IsStatusOnly(fields) {
		return false, fmt.Errorf("%w: reviewers may only change the status", ErrForbidden)
	}
	return true, nil
}

func (s *Service) inScope(ctx context.Context, id models.Identity, ownerID string) (bool, error) {
	if !id.Role.CanViewSubordinates() {
		return false, nil
	}
	return s.scope.CanView(ctx, id.EmployeeID, ownerID)
}

// applyStatus validates a status change and adds it to the patch. Approving
// or rejecting is reserved for reviewers of the owner.
func (s *Service) applyStatus(id models.Identity, reviewer bool, current, next models.Status, patch storage.Patch) error {
	if (next == models.StatusApproved || next == models.StatusRejected) && !reviewer && next != current {
		return fmt.Errorf("%w: only a reviewer may set status %s", ErrForbidden, next)
	}
	change, err := workflow.ChangeStatus(id.Role, current, next, s.now().In(s.loc))
	if err != nil {
		return err
	}
	patch["status"] = string(change.Status)
	if change.ResetSubmission {
		patch["submitted_at"] = change.SubmittedAt
		patch["submitted_date"] = change.SubmittedDate
	}
	return nil
}

// applyImage uploads or deletes an image. Failures are logged and leave the
// column untouched.
func (s *Service) applyImage(ctx context.Context, p models.Project, field string, payload *string, patch storage.Patch) {
	previous := p.BeforeImage
	if field == FieldAfterImage {
		previous = p.AfterImage
	}

	if payload == nil {
		if previous != nil && !s.deleteImage(ctx, p.ID, field, *previous) {
			return
		}
		patch[columns[field]] = nil
		return
	}

	url, ok := s.storeImage(ctx, p.ID, field, *payload)
	if !ok {
		return
	}
	patch[columns[field]] = url
	if previous != nil {
		s.deleteImage(ctx, p.ID, field, *previous)
	}
}

func (s *Service) storeImage(ctx context.Context, projectID int64, field, payload string) (string, bool) {
	img, err := blob.DecodeImage(payload, s.maxImage)
	if err != nil {
		s.warnImage("decode image failed", projectID, field, err)
		return "", false
	}
	key := blob.ProjectImageKey(projectID, imageSlots[field], img.Extension)
	url, err := s.blobs.Upload(ctx, img.Data, key, img.ContentType)
	if err != nil {
		s.warnImage("upload image failed", projectID, field, err)
		return "", false
	}
	return url, true
}

func (s *Service) deleteImage(ctx context.Context, projectID int64, field, url string) bool {
	key, ok := s.blobs.KeyFromURL(url)
	if !ok {
		return true
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.warnImage("delete image failed", projectID, field, err)
		return false
	}
	return true
}

func (s *Service) warnImage(msg string, projectID int64, field string, err error) {
	s.logger.Warn(msg, slog.Int64("project_id", projectID), slog.String("field", field), slog.String("error", err.Error()))
}

func (s *Service) notify(from, to models.Status) {
	if s.observer != nil && from != to {
		s.observer.StatusChanged(from, to)
	}
}

func (s *Service) translate(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, storage.ErrConflict) {
		return err
	}
	return fmt.Errorf("project: store: %w", err)
}

func decodeString(field string, raw json.RawMessage) (string, error) {
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: field %q must be a string", ErrInvalidInput, field)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func decodeNullable(field string, raw json.RawMessage) (*string, error) {
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: field %q must be a string or null", ErrInvalidInput, field)
	}
	return v, nil
}

func sortedKeys(m map[string]*string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
