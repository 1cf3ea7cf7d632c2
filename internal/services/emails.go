package services

import (
	"bytes"
	"html/template"

	"github.com/campuscare/backend/internal/models"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "received"}}<h2>Complaint Received</h2><p>Hi there,</p><p>Your complaint "<b>{{.Title}}</b>"{{with .Location}} for location "<b>{{.}}</b>"{{end}} has been submitted and is awaiting review.</p><p>Thank you,<br/>CampusCare Team</p>{{end}}
{{define "assigned"}}<h2>Your Complaint is In Progress</h2><p>Your complaint "<b>{{.Title}}</b>" has been assigned to the <b>{{.Department}}</b> department.</p>{{with .AssignmentNotes}}<p><b>Notes:</b> {{.}}</p>{{end}}<p>Thank you,<br/>CampusCare Team</p>{{end}}
{{define "rejected"}}<h2>Your Complaint was Rejected</h2><p>Your complaint "<b>{{.Title}}</b>" was not accepted.</p>{{with .RejectionReason}}<p><b>Reason:</b> {{.}}</p>{{end}}<p>CampusCare Team</p>{{end}}
{{define "resolved"}}<h2>Your Complaint has been Resolved</h2><p>Your complaint "<b>{{.Title}}</b>"{{with .Location}} at location "<b>{{.}}</b>"{{end}} has been marked as resolved.</p>{{with .ResolutionNotes}}<p><b>Resolution Notes:</b> {{.}}</p>{{end}}<p>Thank you!</p>{{end}}
{{define "task"}}<h2>New Task Assigned</h2><p>A new task titled "<b>{{.Title}}</b>"{{with .Location}} for location "<b>{{.}}</b>"{{end}} has been assigned to your department.</p>{{with .AssignmentNotes}}<p><b>Notes:</b> {{.}}</p>{{end}}<p>Please log in to the dashboard to view details.</p>{{end}}
`))

type emailData struct {
	Title           string
	Location        string
	Department      string
	AssignmentNotes string
	ResolutionNotes string
	RejectionReason string
}

func newEmailData(c *models.Complaint) emailData {
	return emailData{
		Title:           c.Title,
		Location:        deref(c.Location),
		Department:      c.DepartmentName(),
		AssignmentNotes: deref(c.AssignmentNotes),
		ResolutionNotes: deref(c.ResolutionNotes),
		RejectionReason: deref(c.RejectionReason),
	}
}

func renderEmail(name string, c *models.Complaint) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, newEmailData(c)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
