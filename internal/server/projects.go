package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaizen/internal/project"
	"kaizen/internal/query"
)

type listProjectsRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
	Status     string `form:"status"`
	FormType   string `form:"formType"`
	Department string `form:"department"`
	EmployeeID string `form:"employeeId"`
	Search     string `form:"search"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
}

func (r listProjectsRequest) params() query.Params {
	return query.Params{
		Page:       r.Page,
		PageSize:   r.PageSize,
		Status:     r.Status,
		FormType:   r.FormType,
		Department: r.Department,
		EmployeeID: r.EmployeeID,
		Search:     r.Search,
		SortBy:     r.SortBy,
		SortOrder:  r.SortOrder,
	}
}

type createProjectRequest struct {
	EmployeeID         string `json:"employeeId"`
	ProjectName        string `json:"projectName" binding:"required"`
	ProjectArea        string `json:"projectArea"`
	GroupName          string `json:"groupName"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	ProblemDescription string `json:"problemDescription"`
	Solution           string `json:"solution"`
	Results            string `json:"results"`
	FiveSType          string `json:"fiveSType"`
	FiveSArea          string `json:"fiveSArea"`
	ImprovementTopic   string `json:"improvementTopic"`
	SGSSmart           string `json:"sgsSmart"`
	SGSGreen           string `json:"sgsGreen"`
	SGSSafety          string `json:"sgsSafety"`
	FormType           string `json:"formType" binding:"required"`
	BeforeImage        string `json:"beforeImage"`
	AfterImage         string `json:"afterImage"`
}

func (r createProjectRequest) input() project.CreateInput {
	return project.CreateInput{
		EmployeeID:         r.EmployeeID,
		ProjectName:        r.ProjectName,
		ProjectArea:        r.ProjectArea,
		GroupName:          r.GroupName,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		ProblemDescription: r.ProblemDescription,
		Solution:           r.Solution,
		Results:            r.Results,
		FiveSType:          r.FiveSType,
		FiveSArea:          r.FiveSArea,
		ImprovementTopic:   r.ImprovementTopic,
		SGSSmart:           r.SGSSmart,
		SGSGreen:           r.SGSGreen,
		SGSSafety:          r.SGSSafety,
		FormType:           r.FormType,
		BeforeImage:        r.BeforeImage,
		AfterImage:         r.AfterImage,
	}
}

// handleListProjects returns the caller's projects, or any project for an admin.
func (s *Server) handleListProjects(c *gin.Context) {
	var req listProjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	page, err := s.services.Projects.List(c.Request.Context(), identity(c), req.params())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// handleListTeamProjects returns projects owned by the caller's subordinates.
func (s *Server) handleListTeamProjects(c *gin.Context) {
	var req listProjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	page, err := s.services.Projects.ListTeam(c.Request.Context(), identity(c), req.params())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// handleCreateProject creates a new project.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	p, err := s.services.Projects.Create(c.Request.Context(), identity(c), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, p)
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	p, err := s.services.Projects.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

// handleUpdateProject applies a partial update keyed by public field names.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	p, err := s.services.Projects.Update(c.Request.Context(), identity(c), id, payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

// handleDeleteProject soft deletes a project.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	if err := s.services.Projects.Delete(c.Request.Context(), identity(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleApproveBestKaizen(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	p, err := s.services.Projects.ApproveBestKaizen(c.Request.Context(), identity(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

func (s *Server) handleRemoveBestKaizen(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	p, err := s.services.Projects.RemoveBestKaizen(c.Request.Context(), identity(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, p)
}
