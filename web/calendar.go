package web

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnTengye/jobtracker/model"
)

// EventKind tells which date of an application an event marks.
type EventKind string

const (
	KindApplied   EventKind = "application"
	KindInterview EventKind = "interview"
	KindAccepted  EventKind = "accepted"
	KindRejected  EventKind = "rejected"
)

var kindColors = map[EventKind]string{
	KindApplied:   "#667eea",
	KindInterview: "#ffc107",
	KindAccepted:  "#28a745",
	KindRejected:  "#dc3545",
}

var kindPrefixes = map[EventKind]string{
	KindApplied:   "app",
	KindInterview: "int",
	KindAccepted:  "acc",
	KindRejected:  "rej",
}

// Color is the background of events of kind k.
func (k EventKind) Color() string {
	if c, ok := kindColors[k]; ok {
		return c
	}
	return kindColors[KindApplied]
}

// Label is the word used in titles and details, e.g. "Applied".
func (k EventKind) Label() string {
	if k == KindApplied {
		return "Applied"
	}
	return model.Status(k).Title()
}

// Event is one all-day calendar entry derived from an application.
type Event struct {
	ID          string
	Title       string
	Date        model.Date
	Kind        EventKind
	Application model.Application
}

func (e Event) Color() string { return e.Kind.Color() }

const excerptLength = 100

// Detail is the text shown when an event is selected.
func (e Event) Detail() string {
	app := e.Application
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", app.Company)
	fmt.Fprintf(&b, "%s: %s\n", e.Kind.Label(), e.Date.Long())
	fmt.Fprintf(&b, "Status: %s\n", app.Stage.Status)
	if app.CoverLetter != "" {
		excerpt := []rune(app.CoverLetter)
		if len(excerpt) > excerptLength {
			excerpt = excerpt[:excerptLength]
		}
		b.WriteString("\n" + string(excerpt) + "...")
	}
	return b.String()
}

// BuildEvents maps applications to calendar events: an applied event for
// every dated record plus one for the stage date when the record is in
// that stage.
func BuildEvents(apps []model.Application) []Event {
	events := make([]Event, 0, len(apps))
	for _, app := range apps {
		if !app.ApplicationDate.IsZero() {
			events = append(events, newEvent(app, KindApplied, app.ApplicationDate))
		}
		if date, ok := app.Stage.DateFor(app.Stage.Status); ok {
			events = append(events, newEvent(app, EventKind(app.Stage.Status), date))
		}
	}
	return events
}

func newEvent(app model.Application, kind EventKind, date model.Date) Event {
	return Event{
		ID:          fmt.Sprintf("%s-%d", kindPrefixes[kind], app.ID),
		Title:       fmt.Sprintf("%s (%s)", app.Company, kind.Label()),
		Date:        date,
		Kind:        kind,
		Application: app,
	}
}

// View is a calendar layout.
type View string

const (
	ViewMonth  View = "month"
	ViewWeek   View = "week"
	ViewDay    View = "day"
	ViewAgenda View = "agenda"
)

// Views lists the layouts in toolbar order.
var Views = []View{ViewMonth, ViewWeek, ViewDay, ViewAgenda}

// ParseView falls back to the month view.
func ParseView(s string) View {
	switch v := View(s); v {
	case ViewMonth, ViewWeek, ViewDay, ViewAgenda:
		return v
	}
	return ViewMonth
}

func (v View) Title() string {
	if v == "" {
		return ""
	}
	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

// Navigation moves the focused date.
type Navigation string

const (
	NavToday Navigation = "today"
	NavPrev  Navigation = "prev"
	NavNext  Navigation = "next"
)

const (
	agendaDays     = 30
	monthCellLimit = 3
)

// Calendar is the calendar view over the user's applications. It fetches
// independently of the dashboard.
type Calendar struct {
	Applications []model.Application
	Events       []Event
	Loading      bool
	Error        string
	View         View
	Date         model.Date
	Selected     *Event

	today model.Date
}

// NewCalendar focuses the month view on today.
func NewCalendar(today model.Date) *Calendar {
	return &Calendar{Loading: true, View: ViewMonth, Date: today, today: today}
}

func (c *Calendar) Mount(ctx context.Context, api ListAPI) error {
	defer func() { c.Loading = false }()

	apps, err := api.ListApplications(ctx)
	if err != nil {
		c.Error = msgLoadFailed
		return err
	}
	c.Applications = apps
	c.Events = BuildEvents(apps)
	c.Error = ""
	return nil
}

func (c *Calendar) SetView(v View) {
	c.View = ParseView(string(v))
}

// Navigate moves the focused date by one unit of the current view.
func (c *Calendar) Navigate(nav Navigation) {
	step := 1
	switch nav {
	case NavToday:
		c.Date = c.today
		return
	case NavPrev:
		step = -1
	case NavNext:
	default:
		return
	}

	switch c.View {
	case ViewMonth:
		c.Date = addMonths(c.Date, step)
	case ViewWeek:
		c.Date = c.Date.AddDays(7 * step)
	case ViewDay:
		c.Date = c.Date.AddDays(step)
	case ViewAgenda:
		c.Date = c.Date.AddDays(agendaDays * step)
	}
}

// Select marks the event with id as selected.
func (c *Calendar) Select(id string) bool {
	for i := range c.Events {
		if c.Events[i].ID == id {
			c.Selected = &c.Events[i]
			return true
		}
	}
	return false
}

// Range returns the first and last visible day, inclusive.
func (c *Calendar) Range() (model.Date, model.Date) {
	switch c.View {
	case ViewWeek:
		start := startOfWeek(c.Date)
		return start, start.AddDays(6)
	case ViewDay:
		return c.Date, c.Date
	case ViewAgenda:
		return c.Date, c.Date.AddDays(agendaDays - 1)
	default:
		first := firstOfMonth(c.Date)
		last := addMonths(first, 1).AddDays(-1)
		return startOfWeek(first), startOfWeek(last).AddDays(6)
	}
}

// Label is the toolbar caption of the visible range.
func (c *Calendar) Label() string {
	start, end := c.Range()
	switch c.View {
	case ViewWeek, ViewAgenda:
		return fmt.Sprintf("%s – %s", start.Time().Format("Jan 2, 2006"), end.Time().Format("Jan 2, 2006"))
	case ViewDay:
		return c.Date.Time().Format("Monday, January 2, 2006")
	default:
		return c.Date.Time().Format("January 2006")
	}
}

// EventsOn returns the events of day d.
func (c *Calendar) EventsOn(d model.Date) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.Date.Equal(d) {
			out = append(out, e)
		}
	}
	return out
}

// Day is one cell of the grid.
type Day struct {
	Date    model.Date
	Number  int
	InMonth bool
	Today   bool
	Events  []Event
	More    int
}

// MoreLabel is shown when a month cell hides events.
func (d Day) MoreLabel() string {
	if d.More == 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", d.More)
}

// Weeks lays the visible range out in rows of seven days. Month cells show
// at most a few events and count the rest in More.
func (c *Calendar) Weeks() [][]Day {
	if c.View == ViewDay || c.View == ViewAgenda {
		return nil
	}
	start, end := c.Range()
	var weeks [][]Day
	for d := start; !end.Before(d); d = d.AddDays(7) {
		week := make([]Day, 0, 7)
		for i := 0; i < 7; i++ {
			week = append(week, c.day(d.AddDays(i)))
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// Agenda returns the days of the visible range that have events.
func (c *Calendar) Agenda() []Day {
	start, end := c.Range()
	var days []Day
	for d := start; !end.Before(d); d = d.AddDays(1) {
		if events := c.EventsOn(d); len(events) > 0 {
			days = append(days, Day{Date: d, Number: d.Time().Day(), InMonth: true, Today: d.Equal(c.today), Events: events})
		}
	}
	return days
}

func (c *Calendar) day(d model.Date) Day {
	day := Day{
		Date:    d,
		Number:  d.Time().Day(),
		InMonth: d.Time().Month() == c.Date.Time().Month(),
		Today:   d.Equal(c.today),
		Events:  c.EventsOn(d),
	}
	if c.View == ViewMonth && len(day.Events) > monthCellLimit {
		day.More = len(day.Events) - monthCellLimit
		day.Events = day.Events[:monthCellLimit]
	}
	return day
}

// Counts tallies the loaded records by status.
func (c *Calendar) Counts() model.Stats {
	return model.Tally(c.Applications, c.today.Time())
}

func firstOfMonth(d model.Date) model.Date {
	t := d.Time()
	return model.NewDate(t.Year(), t.Month(), 1)
}

// addMonths moves n months, clamping the day to the target month's length.
func addMonths(d model.Date, n int) model.Date {
	t := d.Time()
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return model.NewDate(first.Year(), first.Month(), day)
}

// startOfWeek returns the Sunday on or before d.
func startOfWeek(d model.Date) model.Date {
	return d.AddDays(-int(d.Time().Weekday()))
}
