package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "interview", "accepted", "rejected"} {
		got, err := ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
	for _, s := range []string{"", "PENDING", "offer"} {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	want := map[Status]string{
		StatusPending:   "⏳",
		StatusInterview: "📞",
		StatusAccepted:  "✅",
		StatusRejected:  "❌",
	}
	for status, icon := range want {
		if got := status.Icon(); got != icon {
			t.Errorf("%s.Icon() = %q, want %q", status, got, icon)
		}
	}
}

func TestNewStage(t *testing.T) {
	d := NewDate(2024, time.March, 5)

	if st := NewStage(StatusPending, d); !st.Date.IsZero() {
		t.Error("pending stage must not carry a date")
	}
	if st := NewStage("bogus", d); st.Status != StatusPending {
		t.Errorf("unknown status should coerce to pending, got %s", st.Status)
	}
	st := NewStage(StatusInterview, d)
	if got, ok := st.DateFor(StatusInterview); !ok || !got.Equal(d) {
		t.Errorf("DateFor(interview) = %v, %v", got, ok)
	}
	if _, ok := st.DateFor(StatusAccepted); ok {
		t.Error("DateFor must not report a date for another status")
	}
}

func TestApplicationUnmarshalDropsNonMatchingDates(t *testing.T) {
	raw := `{
		"id": 7,
		"company": "Acme",
		"application_date": "2024-01-10",
		"status": "accepted",
		"interview_date": "2024-01-20",
		"accepted_date": "2024-02-01",
		"rejected_date": null,
		"cover_letter": "hi",
		"cv_filename": "1_cv.pdf",
		"created_at": "2024-01-10T09:00:00Z"
	}`

	var app Application
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if app.Stage.Status != StatusAccepted {
		t.Errorf("Expected accepted, got %s", app.Stage.Status)
	}
	if app.Stage.Date.String() != "2024-02-01" {
		t.Errorf("Expected accepted date 2024-02-01, got %s", app.Stage.Date)
	}
	if _, ok := app.Stage.DateFor(StatusInterview); ok {
		t.Error("interview date must not survive an accepted status")
	}
	if app.CVFilename != "1_cv.pdf" {
		t.Errorf("Expected cv filename, got %q", app.CVFilename)
	}
}

func TestApplicationMarshalFlatShape(t *testing.T) {
	app := Application{
		ID:              3,
		Company:         "Globex",
		ApplicationDate: NewDate(2024, time.May, 1),
		Stage:           NewStage(StatusRejected, NewDate(2024, time.May, 20)),
		CreatedAt:       time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(app)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	body := string(data)

	for _, want := range []string{
		`"status":"rejected"`,
		`"rejected_date":"2024-05-20"`,
		`"interview_date":null`,
		`"accepted_date":null`,
		`"cv_filename":null`,
		`"application_date":"2024-05-01"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
	if strings.Contains(body, "user_id") {
		t.Error("user id must not be serialised")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-01-10", "2024-01-10", false},
		{"2024-01-10T00:00:00Z", "2024-01-10", false},
		{"2024-01-10 08:00", "2024-01-10", false},
		{"2024-01-10garbage", "", true},
		{"2024-01-100", "", true},
		{"", "", false},
		{"10/01/2024", "", true},
		{"2024-13-01", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDateLong(t *testing.T) {
	if got := NewDate(2024, time.January, 10).Long(); got != "January 10, 2024" {
		t.Errorf("Long() = %q", got)
	}
	if got := (Date{}).Long(); got != "N/A" {
		t.Errorf("zero Long() = %q, want N/A", got)
	}
}

func TestTally(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	apps := []Application{
		{ApplicationDate: NewDate(2024, time.March, 1), Stage: NewStage(StatusPending, Date{})},
		{ApplicationDate: NewDate(2024, time.March, 2), Stage: NewStage(StatusInterview, Date{})},
		{ApplicationDate: NewDate(2024, time.February, 2), Stage: NewStage(StatusAccepted, Date{})},
		{ApplicationDate: NewDate(2023, time.March, 2), Stage: NewStage(StatusRejected, Date{})},
		{ApplicationDate: NewDate(2024, time.January, 2), Stage: NewStage(StatusPending, Date{})},
	}

	got := Tally(apps, now)
	want := Stats{Total: 5, Pending: 2, Interview: 1, Accepted: 1, Rejected: 1, ThisMonth: 2}
	if got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
	if got.Count(StatusPending) != 2 {
		t.Errorf("Count(pending) = %d", got.Count(StatusPending))
	}
}
