package models

import "time"

// Employee is a person who can submit Kaizen projects.
type Employee struct {
	ID             string    `json:"employeeId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Department     string    `json:"department"`
	Role           Role      `json:"role"`
	Approver       *string   `json:"approver"`
	Active         bool      `json:"active"`
	KaizenTeam     bool      `json:"kaizenTeam"`
	KaizenTeamDate *string   `json:"kaizenTeamDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Department maps a department code to its display name.
type Department struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Project is a single improvement record moving through the status workflow.
type Project struct {
	ID                 int64      `json:"id"`
	EmployeeID         string     `json:"employeeId"`
	Department         string     `json:"department"`
	ProjectName        string     `json:"projectName"`
	ProjectArea        string     `json:"projectArea"`
	GroupName          string     `json:"groupName"`
	StartDate          string     `json:"startDate"`
	EndDate            string     `json:"endDate"`
	ProblemDescription string     `json:"problemDescription"`
	Solution           string     `json:"solution"`
	Results            string     `json:"results"`
	FiveSType          string     `json:"fiveSType"`
	FiveSArea          string     `json:"fiveSArea"`
	ImprovementTopic   string     `json:"improvementTopic"`
	SGSSmart           string     `json:"sgsSmart"`
	SGSGreen           string     `json:"sgsGreen"`
	SGSSafety          string     `json:"sgsSafety"`
	BeforeImage        *string    `json:"beforeImage"`
	AfterImage         *string    `json:"afterImage"`
	FormType           FormType   `json:"formType"`
	Status             Status     `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	SubmittedAt        *time.Time `json:"submittedAt"`
	SubmittedDate      string     `json:"submittedDate"`
}

// Submission is the slice of a project the monthly and yearly reports read.
type Submission struct {
	ProjectID   int64
	EmployeeID  string
	Department  string
	Status      Status
	SubmittedAt time.Time
}
