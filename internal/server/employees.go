package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kaizen/internal/employee"
	"kaizen/internal/models"
)

type createEmployeeRequest struct {
	EmployeeID     string  `json:"employeeId" binding:"required"`
	FirstName      string  `json:"firstName" binding:"required"`
	LastName       string  `json:"lastName" binding:"required"`
	Department     string  `json:"department" binding:"required"`
	Role           string  `json:"role" binding:"required"`
	Approver       *string `json:"approver"`
	Active         *bool   `json:"active"`
	KaizenTeam     bool    `json:"kaizenTeam"`
	KaizenTeamDate *string `json:"kaizenTeamDate" binding:"omitempty,kaizen_date"`
}

// updateEmployeeRequest keeps approver raw so an explicit null clears it.
type updateEmployeeRequest struct {
	FirstName      *string         `json:"firstName"`
	LastName       *string         `json:"lastName"`
	Department     *string         `json:"department"`
	Role           *string         `json:"role"`
	Approver       json.RawMessage `json:"approver"`
	Active         *bool           `json:"active"`
	KaizenTeam     *bool           `json:"kaizenTeam"`
	KaizenTeamDate *string         `json:"kaizenTeamDate" binding:"omitempty,kaizen_date"`
}

func (r updateEmployeeRequest) input() (employee.UpdateInput, error) {
	in := employee.UpdateInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Department:     r.Department,
		Role:           r.Role,
		Active:         r.Active,
		KaizenTeam:     r.KaizenTeam,
		KaizenTeamDate: r.KaizenTeamDate,
	}
	switch {
	case len(r.Approver) == 0:
	case string(r.Approver) == "null":
		in.ClearApprover = true
	default:
		var approver string
		if err := json.Unmarshal(r.Approver, &approver); err != nil {
			return employee.UpdateInput{}, fmt.Errorf("%w: approver must be a string or null", errBadRequest)
		}
		in.Approver = &approver
	}
	return in, nil
}

type departmentRequest struct {
	Name   string `json:"name" binding:"required"`
	Active *bool  `json:"active"`
}

// handleListEmployees lists employees, optionally by department and active flag.
func (s *Server) handleListEmployees(c *gin.Context) {
	f := employee.Filter{Department: c.Query("department")}
	if raw, ok := c.GetQuery("active"); ok {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(c, fmt.Errorf("%w: active must be true or false", errBadRequest))
			return
		}
		f.Active = &active
	}

	out, err := s.services.Employees.List(c.Request.Context(), identity(c), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, out)
}

func (s *Server) handleCreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	e, err := s.services.Employees.Create(c.Request.Context(), identity(c), employee.CreateInput{
		EmployeeID:     req.EmployeeID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Department:     req.Department,
		Role:           req.Role,
		Approver:       req.Approver,
		Active:         req.Active,
		KaizenTeam:     req.KaizenTeam,
		KaizenTeamDate: req.KaizenTeamDate,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, e)
}

func (s *Server) handleGetEmployee(c *gin.Context) {
	e, err := s.services.Employees.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, e)
}

func (s *Server) handleUpdateEmployee(c *gin.Context) {
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		s.respondError(c, err)
		return
	}

	e, err := s.services.Employees.Update(c.Request.Context(), identity(c), c.Param("id"), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, e)
}

// handleListDepartments is open to every authenticated caller.
func (s *Server) handleListDepartments(c *gin.Context) {
	out, err := s.services.Employees.Departments(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, out)
}

func (s *Server) handleSaveDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}
	d := models.Department{Code: c.Param("code"), Name: req.Name, Active: true}
	if req.Active != nil {
		d.Active = *req.Active
	}

	saved, err := s.services.Employees.SaveDepartment(c.Request.Context(), identity(c), d)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, saved)
}
