package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInterview Status = "interview"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInterview, StatusAccepted, StatusRejected}

// ParseStatus returns an error for values outside Statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInterview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Icon is the badge glyph shown next to the status label.
func (s Status) Icon() string {
	switch s {
	case StatusPending:
		return "⏳"
	case StatusInterview:
		return "📞"
	case StatusAccepted:
		return "✅"
	case StatusRejected:
		return "❌"
	}
	return ""
}

// Title is the capitalised label, e.g. "Interview".
func (s Status) Title() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInterview:
		return "Interview"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// HasDate reports whether the status carries its own date.
func (s Status) HasDate() bool {
	return s == StatusInterview || s == StatusAccepted || s == StatusRejected
}

// Stage is the status of an application together with the single date that
// is meaningful for it. Pending never carries a date.
type Stage struct {
	Status Status
	Date   Date
}

// NewStage builds a Stage, coercing unknown statuses to pending and dropping
// dates that the status cannot carry.
func NewStage(status Status, date Date) Stage {
	if !status.Valid() {
		status = StatusPending
	}
	if !status.HasDate() {
		date = Date{}
	}
	return Stage{Status: status, Date: date}
}

// DateFor returns the stage date when the stage is in status and has a date.
func (s Stage) DateFor(status Status) (Date, bool) {
	if s.Status != status || s.Date.IsZero() {
		return Date{}, false
	}
	return s.Date, true
}

// Application is a single tracked job application.
type Application struct {
	ID              int64
	UserID          int64
	Company         string
	ApplicationDate Date
	Stage           Stage
	CoverLetter     string
	CVFilename      string
	CreatedAt       time.Time
}

// applicationJSON is the flat wire shape shared by the API and its clients.
type applicationJSON struct {
	ID              int64     `json:"id"`
	Company         string    `json:"company"`
	ApplicationDate Date      `json:"application_date"`
	Status          Status    `json:"status"`
	InterviewDate   Date      `json:"interview_date"`
	AcceptedDate    Date      `json:"accepted_date"`
	RejectedDate    Date      `json:"rejected_date"`
	CoverLetter     string    `json:"cover_letter"`
	CVFilename      *string   `json:"cv_filename"`
	CreatedAt       time.Time `json:"created_at"`
}

func (a Application) MarshalJSON() ([]byte, error) {
	out := applicationJSON{
		ID:              a.ID,
		Company:         a.Company,
		ApplicationDate: a.ApplicationDate,
		Status:          a.Stage.Status,
		CoverLetter:     a.CoverLetter,
		CreatedAt:       a.CreatedAt,
	}
	out.InterviewDate, _ = a.Stage.DateFor(StatusInterview)
	out.AcceptedDate, _ = a.Stage.DateFor(StatusAccepted)
	out.RejectedDate, _ = a.Stage.DateFor(StatusRejected)
	if a.CVFilename != "" {
		name := a.CVFilename
		out.CVFilename = &name
	}
	return json.Marshal(out)
}

// UnmarshalJSON keeps only the status date matching the record's status.
func (a *Application) UnmarshalJSON(data []byte) error {
	var in applicationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var date Date
	switch in.Status {
	case StatusInterview:
		date = in.InterviewDate
	case StatusAccepted:
		date = in.AcceptedDate
	case StatusRejected:
		date = in.RejectedDate
	}

	*a = Application{
		ID:              in.ID,
		Company:         in.Company,
		ApplicationDate: in.ApplicationDate,
		Stage:           NewStage(in.Status, date),
		CoverLetter:     in.CoverLetter,
		CreatedAt:       in.CreatedAt,
	}
	if in.CVFilename != nil {
		a.CVFilename = *in.CVFilename
	}
	return nil
}
