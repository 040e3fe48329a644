package web

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AnTengye/jobtracker/model"
)

func TestBuildEvents(t *testing.T) {
	apps := []model.Application{
		{ID: 1, Company: "Acme", ApplicationDate: model.NewDate(2024, time.January, 10), Stage: model.NewStage(model.StatusPending, model.Date{})},
		{ID: 2, Company: "Globex", ApplicationDate: model.NewDate(2024, time.January, 5), Stage: model.NewStage(model.StatusInterview, model.NewDate(2024, time.January, 20))},
		{ID: 3, Company: "Initech", ApplicationDate: model.NewDate(2024, time.January, 6), Stage: model.NewStage(model.StatusAccepted, model.Date{})},
	}

	events := BuildEvents(apps)
	want := []struct {
		id, title, color string
		date             model.Date
	}{
		{"app-1", "Acme (Applied)", "#667eea", model.NewDate(2024, time.January, 10)},
		{"app-2", "Globex (Applied)", "#667eea", model.NewDate(2024, time.January, 5)},
		{"int-2", "Globex (Interview)", "#ffc107", model.NewDate(2024, time.January, 20)},
		{"app-3", "Initech (Applied)", "#667eea", model.NewDate(2024, time.January, 6)},
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		e := events[i]
		if e.ID != w.id || e.Title != w.title || e.Color() != w.color || !e.Date.Equal(w.date) {
			t.Errorf("event %d = {%s %s %s %s}, want {%s %s %s %s}", i, e.ID, e.Title, e.Color(), e.Date, w.id, w.title, w.color, w.date)
		}
	}
}

func TestEventColors(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{KindApplied, "#667eea"},
		{KindInterview, "#ffc107"},
		{KindAccepted, "#28a745"},
		{KindRejected, "#dc3545"},
		{EventKind("other"), "#667eea"},
	}
	for _, tt := range tests {
		if got := tt.kind.Color(); got != tt.want {
			t.Errorf("%s.Color() = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestEventDetail(t *testing.T) {
	app := model.Application{
		ID:              4,
		Company:         "Umbrella",
		ApplicationDate: model.NewDate(2024, time.March, 1),
		Stage:           model.NewStage(model.StatusRejected, model.NewDate(2024, time.March, 9)),
		CoverLetter:     strings.Repeat("x", 150),
	}
	events := BuildEvents([]model.Application{app})

	detail := events[1].Detail()
	wantPrefix := "Company: Umbrella\nRejected: March 9, 2024\nStatus: rejected\n\n"
	if !strings.HasPrefix(detail, wantPrefix) {
		t.Errorf("Unexpected detail %q", detail)
	}
	if !strings.HasSuffix(detail, strings.Repeat("x", 100)+"...") || strings.Contains(detail, strings.Repeat("x", 101)) {
		t.Errorf("Expected cover letter cut to 100 chars, got %q", detail)
	}

	app.CoverLetter = ""
	detail = BuildEvents([]model.Application{app})[0].Detail()
	if detail != "Company: Umbrella\nApplied: March 1, 2024\nStatus: rejected\n" {
		t.Errorf("Unexpected detail without cover letter %q", detail)
	}
}

func TestCalendarNavigate(t *testing.T) {
	today := model.NewDate(2024, time.January, 31)
	tests := []struct {
		view View
		nav  Navigation
		want model.Date
	}{
		{ViewMonth, NavNext, model.NewDate(2024, time.February, 29)},
		{ViewMonth, NavPrev, model.NewDate(2023, time.December, 31)},
		{ViewWeek, NavNext, model.NewDate(2024, time.February, 7)},
		{ViewDay, NavPrev, model.NewDate(2024, time.January, 30)},
		{ViewAgenda, NavNext, model.NewDate(2024, time.March, 1)},
		{ViewMonth, Navigation("sideways"), today},
	}

	for _, tt := range tests {
		cal := NewCalendar(today)
		cal.SetView(tt.view)
		cal.Navigate(tt.nav)
		if !cal.Date.Equal(tt.want) {
			t.Errorf("%s/%s: got %s, want %s", tt.view, tt.nav, cal.Date, tt.want)
		}
	}

	cal := NewCalendar(today)
	cal.Navigate(NavNext)
	cal.Navigate(NavToday)
	if !cal.Date.Equal(today) {
		t.Errorf("Expected today after NavToday, got %s", cal.Date)
	}
}

func TestCalendarRange(t *testing.T) {
	cal := NewCalendar(model.NewDate(2024, time.January, 10))

	start, end := cal.Range()
	if start.String() != "2023-12-31" || end.String() != "2024-02-03" {
		t.Errorf("month range = %s..%s", start, end)
	}
	if weeks := cal.Weeks(); len(weeks) != 5 || len(weeks[0]) != 7 {
		t.Errorf("Expected 5 weeks of 7 days, got %d", len(weeks))
	}

	cal.SetView(ViewWeek)
	start, end = cal.Range()
	if start.String() != "2024-01-07" || end.String() != "2024-01-13" {
		t.Errorf("week range = %s..%s", start, end)
	}

	cal.SetView(ViewAgenda)
	start, end = cal.Range()
	if start.String() != "2024-01-10" || end.String() != "2024-02-08" {
		t.Errorf("agenda range = %s..%s", start, end)
	}

	cal.SetView(View("year"))
	if cal.View != ViewMonth {
		t.Errorf("Expected unknown view to fall back to month, got %s", cal.View)
	}
}

func TestCalendarMount(t *testing.T) {
	apps := []model.Application{
		{ID: 1, Company: "Acme", ApplicationDate: model.NewDate(2024, time.January, 10), Stage: model.NewStage(model.StatusPending, model.Date{})},
	}
	cal := NewCalendar(model.NewDate(2024, time.January, 15))
	if err := cal.Mount(context.Background(), &fakeAPI{apps: apps}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if len(cal.Events) != 1 || cal.Events[0].Title != "Acme (Applied)" {
		t.Errorf("Unexpected events %+v", cal.Events)
	}
	if got := cal.EventsOn(model.NewDate(2024, time.January, 10)); len(got) != 1 {
		t.Errorf("Expected one event on Jan 10, got %d", len(got))
	}
	if !cal.Select("app-1") || cal.Selected.Application.ID != 1 {
		t.Error("Expected app-1 to be selectable")
	}
	if cal.Select("int-1") {
		t.Error("Expected unknown event id to be refused")
	}
	if c := cal.Counts(); c.Total != 1 || c.Pending != 1 {
		t.Errorf("Unexpected counts %+v", c)
	}

	failed := NewCalendar(model.NewDate(2024, time.January, 15))
	if err := failed.Mount(context.Background(), &fakeAPI{listErr: errors.New("down")}); err == nil {
		t.Fatal("Expected mount error")
	}
	if failed.Error != "Failed to load applications" || failed.Loading {
		t.Errorf("Unexpected failed state error=%q loading=%v", failed.Error, failed.Loading)
	}
}

func TestCalendarMonthCellLimit(t *testing.T) {
	var apps []model.Application
	for i := int64(1); i <= 5; i++ {
		apps = append(apps, model.Application{ID: i, Company: "Co", ApplicationDate: model.NewDate(2024, time.January, 10), Stage: model.NewStage(model.StatusPending, model.Date{})})
	}
	cal := NewCalendar(model.NewDate(2024, time.January, 15))
	cal.Mount(context.Background(), &fakeAPI{apps: apps})

	for _, week := range cal.Weeks() {
		for _, day := range week {
			if day.Date.Equal(model.NewDate(2024, time.January, 10)) {
				if len(day.Events) != 3 || day.MoreLabel() != "+2 more" {
					t.Errorf("Expected 3 events and +2 more, got %d %q", len(day.Events), day.MoreLabel())
				}
				return
			}
		}
	}
	t.Error("January 10 not in month grid")
}
