package web

import (
	"context"
	"sort"
	"time"

	"github.com/AnTengye/jobtracker/model"
)

// ListAPI fetches the signed-in user's applications.
type ListAPI interface {
	ListApplications(ctx context.Context) ([]model.Application, error)
}

// DashboardAPI is everything the dashboard calls.
type DashboardAPI interface {
	ListAPI
	FormAPI
	DeleteApplication(ctx context.Context, id int64) error
}

const (
	msgLoadFailed   = "Failed to load applications"
	msgDeleteFailed = "Failed to delete application"
)

// Dashboard is the list view: the application form above the user's cards.
type Dashboard struct {
	Applications []model.Application
	Loading      bool
	Error        string
	Form         *Form

	now func() time.Time
}

func NewDashboard(now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{Loading: true, Form: NewForm(), now: now}
}

// Mount loads the list once.
func (d *Dashboard) Mount(ctx context.Context, api ListAPI) error {
	defer func() { d.Loading = false }()

	apps, err := api.ListApplications(ctx)
	if err != nil {
		d.Error = msgLoadFailed
		return err
	}
	d.Applications = apps
	d.Error = ""
	return nil
}

// Find returns the loaded record with id.
func (d *Dashboard) Find(id int64) (*model.Application, bool) {
	for i := range d.Applications {
		if d.Applications[i].ID == id {
			return &d.Applications[i], true
		}
	}
	return nil, false
}

// Edit loads the record with id into the form.
func (d *Dashboard) Edit(id int64) bool {
	app, ok := d.Find(id)
	if !ok {
		return false
	}
	d.Form.Load(app)
	return true
}

// CancelEdit returns the form to create mode without touching any record.
func (d *Dashboard) CancelEdit() {
	d.Form.Reset()
}

// Submit posts the form and merges the returned record into the list.
func (d *Dashboard) Submit(ctx context.Context, api FormAPI) (*model.Application, error) {
	app, err := d.Form.Submit(ctx, api)
	if err != nil {
		return nil, err
	}
	d.Upsert(*app)
	return app, nil
}

// Upsert replaces the record with app's id or adds app, keeping the order
// the backend lists in.
func (d *Dashboard) Upsert(app model.Application) {
	if existing, ok := d.Find(app.ID); ok {
		*existing = app
	} else {
		d.Applications = append(d.Applications, app)
	}
	sortApplications(d.Applications)
}

// Remove drops the record with id from the list.
func (d *Dashboard) Remove(id int64) {
	kept := d.Applications[:0]
	for _, app := range d.Applications {
		if app.ID != id {
			kept = append(kept, app)
		}
	}
	d.Applications = kept
}

// Delete removes the record with id once the user confirmed. An unconfirmed
// request does nothing. A failed call keeps the card and sets Error.
func (d *Dashboard) Delete(ctx context.Context, api DashboardAPI, id int64, confirmed bool) error {
	if !confirmed {
		return nil
	}
	if err := api.DeleteApplication(ctx, id); err != nil {
		d.Error = msgDeleteFailed
		return err
	}
	d.Remove(id)
	if d.Form.Editing != nil && d.Form.Editing.ID == id {
		d.Form.Reset()
	}
	return nil
}

// Empty reports a finished load with nothing to show.
func (d *Dashboard) Empty() bool {
	return !d.Loading && len(d.Applications) == 0
}

// Counts tallies the loaded records by status.
func (d *Dashboard) Counts() model.Stats {
	return model.Tally(d.Applications, d.now())
}

// Card is the display form of one application.
type Card struct {
	ID          int64
	Company     string
	Applied     string
	Status      model.Status
	StatusIcon  string
	StageLabel  string
	StageDate   string
	CoverLetter string
	CVFilename  string
	Created     string
}

func (d *Dashboard) Cards() []Card {
	cards := make([]Card, 0, len(d.Applications))
	for _, app := range d.Applications {
		cards = append(cards, NewCard(app))
	}
	return cards
}

// NewCard formats app for display. Dates are long-form; missing ones read N/A.
func NewCard(app model.Application) Card {
	card := Card{
		ID:          app.ID,
		Company:     app.Company,
		Applied:     app.ApplicationDate.Long(),
		Status:      app.Stage.Status,
		StatusIcon:  app.Stage.Status.Icon(),
		CoverLetter: app.CoverLetter,
		CVFilename:  app.CVFilename,
		Created:     "N/A",
	}
	if date, ok := app.Stage.DateFor(app.Stage.Status); ok {
		card.StageLabel = app.Stage.Status.Title()
		card.StageDate = date.Long()
	}
	if !app.CreatedAt.IsZero() {
		card.Created = model.DateOf(app.CreatedAt).Long()
	}
	return card
}

func sortApplications(apps []model.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, b := apps[i].ApplicationDate, apps[j].ApplicationDate
		if !a.Equal(b) {
			return b.Before(a)
		}
		return apps[i].ID > apps[j].ID
	})
}
