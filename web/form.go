package web

import (
	"context"
	"errors"
	"fmt"
	"mime"

	"github.com/AnTengye/jobtracker/client"
	"github.com/AnTengye/jobtracker/model"
)

// FormAPI is the part of the API the application form submits to.
type FormAPI interface {
	CreateApplication(ctx context.Context, p client.ApplicationPayload) (*model.Application, error)
	UpdateApplication(ctx context.Context, id int64, p client.ApplicationPayload) (*model.Application, error)
}

// Form holds the state of the add/edit application form. Dates are kept as
// entered so a failed submission can be shown again unchanged.
type Form struct {
	Company         string
	ApplicationDate string
	Status          model.Status
	StageDate       string
	CoverLetter     string
	CV              *client.File

	Error      string
	Submitting bool
	Editing    *model.Application
}

// NewForm returns an empty form in create mode.
func NewForm() *Form {
	f := &Form{}
	f.Reset()
	return f
}

// Reset clears every field and returns to create mode.
func (f *Form) Reset() {
	*f = Form{Status: model.StatusPending}
}

// Load pre-populates the form from app and switches to edit mode. A nil app
// resets the form.
func (f *Form) Load(app *model.Application) {
	f.Reset()
	if app == nil {
		return
	}
	editing := *app
	f.Editing = &editing
	f.Company = app.Company
	f.ApplicationDate = app.ApplicationDate.String()
	f.Status = app.Stage.Status
	f.StageDate = app.Stage.Date.String()
	f.CoverLetter = app.CoverLetter
}

// IsEditing reports whether the form updates an existing record.
func (f *Form) IsEditing() bool {
	return f.Editing != nil
}

// SelectFile stages a CV for upload. Anything but a PDF is refused and
// leaves no file selected.
func (f *Form) SelectFile(name, contentType string, data []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/pdf" {
		f.CV = nil
		f.Error = "Please select a PDF file"
		return false
	}
	f.CV = &client.File{Name: name, ContentType: mediaType, Data: data}
	f.Error = ""
	return true
}

// Validate checks the entered values and builds the submission payload.
func (f *Form) Validate() (client.ApplicationPayload, error) {
	if f.Company == "" {
		return client.ApplicationPayload{}, errors.New("Company name is required")
	}
	if f.ApplicationDate == "" {
		return client.ApplicationPayload{}, errors.New("Application date is required")
	}
	applied, err := model.ParseDate(f.ApplicationDate)
	if err != nil {
		return client.ApplicationPayload{}, errors.New("Invalid date format. Use YYYY-MM-DD")
	}
	if applied.Year() > model.MaxYear {
		return client.ApplicationPayload{}, fmt.Errorf("Application date must be on or before December 31, %d", model.MaxYear)
	}

	var stageDate model.Date
	if f.Status.HasDate() {
		if stageDate, err = model.ParseDate(f.StageDate); err != nil {
			return client.ApplicationPayload{}, errors.New("Invalid date format. Use YYYY-MM-DD")
		}
	}

	return client.ApplicationPayload{
		Company:         f.Company,
		ApplicationDate: applied,
		Stage:           model.NewStage(f.Status, stageDate),
		CoverLetter:     f.CoverLetter,
		CV:              f.CV,
	}, nil
}

// Submit sends exactly one create or update. On success the form is reset
// and the stored record returned; on failure the entered values are kept
// and Error explains what went wrong.
func (f *Form) Submit(ctx context.Context, api FormAPI) (*model.Application, error) {
	f.Error = ""
	payload, err := f.Validate()
	if err != nil {
		f.Error = err.Error()
		return nil, err
	}

	f.Submitting = true
	defer func() { f.Submitting = false }()

	var app *model.Application
	if f.Editing != nil {
		app, err = api.UpdateApplication(ctx, f.Editing.ID, payload)
	} else {
		app, err = api.CreateApplication(ctx, payload)
	}
	if err != nil {
		f.Error = f.failureMessage(err)
		return nil, err
	}

	f.Reset()
	return app, nil
}

func (f *Form) failureMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if f.Editing != nil {
		return "Failed to update application"
	}
	return "Failed to create application"
}

// Title heads the form.
func (f *Form) Title() string {
	if f.Editing != nil {
		return "✏️ Edit Application"
	}
	return "➕ Add New Application"
}

const busyLabel = "Submitting..."

// SubmitLabel is the text of the submit control.
func (f *Form) SubmitLabel() string {
	switch {
	case f.Submitting:
		return busyLabel
	case f.Editing != nil:
		return "Update Application"
	default:
		return "Add Application"
	}
}

// BusyLabel replaces SubmitLabel in the browser once the form is sent.
func (f *Form) BusyLabel() string { return busyLabel }

// Action is the UI route the form posts to.
func (f *Form) Action() string {
	if f.Editing != nil {
		return fmt.Sprintf("/applications/%d", f.Editing.ID)
	}
	return "/applications"
}

// CurrentCV names the stored CV of the record being edited when no new file
// was chosen.
func (f *Form) CurrentCV() string {
	if f.Editing == nil || f.CV != nil {
		return ""
	}
	return f.Editing.CVFilename
}

// StageDateFor returns the entered stage date when status is selected.
func (f *Form) StageDateFor(status model.Status) string {
	if f.Status != status {
		return ""
	}
	return f.StageDate
}
