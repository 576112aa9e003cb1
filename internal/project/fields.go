package project

import "regexp"

// Public field names accepted by create and update payloads.
const (
	FieldEmployeeID         = "employeeId"
	FieldDepartment         = "department"
	FieldProjectName        = "projectName"
	FieldProjectArea        = "projectArea"
	FieldGroupName          = "groupName"
	FieldStartDate          = "startDate"
	FieldEndDate            = "endDate"
	FieldProblemDescription = "problemDescription"
	FieldSolution           = "solution"
	FieldResults            = "results"
	FieldFiveSType          = "fiveSType"
	FieldFiveSArea          = "fiveSArea"
	FieldImprovementTopic   = "improvementTopic"
	FieldSGSSmart           = "sgsSmart"
	FieldSGSGreen           = "sgsGreen"
	FieldSGSSafety          = "sgsSafety"
	FieldBeforeImage        = "beforeImage"
	FieldAfterImage         = "afterImage"
	FieldFormType           = "formType"
	FieldStatus             = "status"
)

var columns = map[string]string{
	FieldEmployeeID:         "employee_id",
	FieldDepartment:         "department",
	FieldProjectName:        "project_name",
	FieldProjectArea:        "project_area",
	FieldGroupName:          "group_name",
	FieldStartDate:          "start_date",
	FieldEndDate:            "end_date",
	FieldProblemDescription: "problem_description",
	FieldSolution:           "solution",
	FieldResults:            "results",
	FieldFiveSType:          "five_s_type",
	FieldFiveSArea:          "five_s_area",
	FieldImprovementTopic:   "improvement_topic",
	FieldSGSSmart:           "sgs_smart",
	FieldSGSGreen:           "sgs_green",
	FieldSGSSafety:          "sgs_safety",
	FieldBeforeImage:        "before_image_url",
	FieldAfterImage:         "after_image_url",
	FieldFormType:           "form_type",
	FieldStatus:             "status",
}

// ownership is fixed at creation
var immutableFields = map[string]bool{
	FieldEmployeeID: true,
	FieldDepartment: true,
}

var dateFields = map[string]bool{
	FieldStartDate: true,
	FieldEndDate:   true,
}

var imageSlots = map[string]string{
	FieldBeforeImage: "before",
	FieldAfterImage:  "after",
}

// Column maps a public field name to its storage column.
func Column(field string) (string, bool) {
	col, ok := columns[field]
	return col, ok
}

var displayDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// NormalizeDate rewrites DD/MM/YYYY to YYYY-MM-DD. Any other input, including
// values already in YYYY-MM-DD, is returned unchanged.
func NormalizeDate(raw string) string {
	m := displayDate.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return m[3] + "-" + m[2] + "-" + m[1]
}
