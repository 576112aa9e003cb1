// Package storage holds what the record store adapters share.
package storage

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound = errors.New("storage: record not found")
	ErrConflict = errors.New("storage: duplicate key")
)

// ProjectColumns is the select list every adapter scans projects with.
const ProjectColumns = `id, employee_id, department, project_name, project_area, group_name,
	start_date, end_date, problem_description, solution, results, five_s_type, five_s_area,
	improvement_topic, sgs_smart, sgs_green, sgs_safety, before_image_url, after_image_url,
	form_type, status, created_at, submitted_at, submitted_date`

// EmployeeColumns is the select list every adapter scans employees with.
const EmployeeColumns = `employee_id, first_name, last_name, department, role, approver,
	active, kaizen_team, kaizen_team_date, created_at`

var projectPatchColumns = map[string]bool{
	"project_name": true, "project_area": true, "group_name": true,
	"start_date": true, "end_date": true, "problem_description": true,
	"solution": true, "results": true, "five_s_type": true, "five_s_area": true,
	"improvement_topic": true, "sgs_smart": true, "sgs_green": true, "sgs_safety": true,
	"before_image_url": true, "after_image_url": true, "form_type": true, "status": true,
	"submitted_at": true, "submitted_date": true,
}

var employeePatchColumns = map[string]bool{
	"first_name": true, "last_name": true, "department": true, "role": true,
	"approver": true, "active": true, "kaizen_team": true, "kaizen_team_date": true,
}

// Patch is a partial row update keyed by column name.
type Patch map[string]any

// Columns returns the patch's columns in a stable order.
func (p Patch) Columns() []string {
	cols := make([]string, 0, len(p))
	for c := range p {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// CheckProject rejects columns a project update may not touch.
func (p Patch) CheckProject() error {
	return p.check(projectPatchColumns)
}

// CheckEmployee rejects columns an employee update may not touch.
func (p Patch) CheckEmployee() error {
	return p.check(employeePatchColumns)
}

func (p Patch) check(allowed map[string]bool) error {
	if len(p) == 0 {
		return fmt.Errorf("storage: empty patch")
	}
	for _, c := range p.Columns() {
		if !allowed[c] {
			return fmt.Errorf("storage: column %q is not updatable", c)
		}
	}
	return nil
}
