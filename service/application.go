package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/AnTengye/jobtracker/pkg/logger"
)

// Upload is a CV file attached to a create or update request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ApplicationInput carries the raw form fields of a create or update.
type ApplicationInput struct {
	Company         string
	ApplicationDate string
	Status          string
	InterviewDate   string
	AcceptedDate    string
	RejectedDate    string
	CoverLetter     string
	CV              *Upload
}

// ApplicationService implements application tracking on top of a repository
// and a file store.
type ApplicationService struct {
	repo   ApplicationRepository
	files  FileStore
	events Publisher
	now    func() time.Time
}

func NewApplicationService(repo ApplicationRepository, files FileStore, events Publisher) *ApplicationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ApplicationService{repo: repo, files: files, events: events, now: time.Now}
}

// parse validates the input and returns the application fields it describes.
// Unknown statuses fall back to pending; only the date of the chosen status
// is kept.
func (in ApplicationInput) parse() (*model.Application, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" || strings.TrimSpace(in.ApplicationDate) == "" {
		return nil, apperr.InvalidInput("Missing required fields: company, application_date")
	}

	appDate, err := model.ParseDate(in.ApplicationDate)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid date format. Use YYYY-MM-DD")
	}

	status := model.Status(in.Status)
	if !status.Valid() {
		status = model.StatusPending
	}

	var raw string
	switch status {
	case model.StatusInterview:
		raw = in.InterviewDate
	case model.StatusAccepted:
		raw = in.AcceptedDate
	case model.StatusRejected:
		raw = in.RejectedDate
	}
	stageDate, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid date format. Use YYYY-MM-DD")
	}

	if in.CV != nil && !strings.HasSuffix(strings.ToLower(in.CV.Filename), ".pdf") {
		return nil, apperr.InvalidInput("Only PDF files are allowed for CV")
	}

	return &model.Application{
		Company:         company,
		ApplicationDate: appDate,
		Stage:           model.NewStage(status, stageDate),
		CoverLetter:     in.CoverLetter,
	}, nil
}

func (s *ApplicationService) storeCV(ctx context.Context, userID int64, cv *Upload) (string, error) {
	name := CVObjectName(userID, cv.Filename, s.now())
	contentType := cv.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if err := s.files.Save(ctx, name, cv.Body, cv.Size, contentType); err != nil {
		return "", apperr.Internal("Failed to save CV", err)
	}
	return name, nil
}

func (s *ApplicationService) removeCV(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.files.Delete(ctx, name); err != nil {
		logger.Warn(ctx, "failed to remove cv", "cv_filename", name, "error", err)
	}
}

// Create stores a new application and returns it as persisted.
func (s *ApplicationService) Create(ctx context.Context, userID int64, in ApplicationInput) (*model.Application, error) {
	app, err := in.parse()
	if err != nil {
		return nil, err
	}
	app.UserID = userID

	if in.CV != nil {
		if app.CVFilename, err = s.storeCV(ctx, userID, in.CV); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.CreateApplication(ctx, app)
	if err != nil {
		s.removeCV(ctx, app.CVFilename)
		return nil, err
	}

	logger.Info(ctx, "application created", "application_id", created.ID, "company", created.Company)
	s.publish(ctx, EventApplicationCreated, created)
	return created, nil
}

// Update replaces every field of an application. A new CV replaces the old
// file, which is then removed.
func (s *ApplicationService) Update(ctx context.Context, userID, id int64, in ApplicationInput) (*model.Application, error) {
	app, err := in.parse()
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetApplication(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	app.ID = id
	app.UserID = userID
	app.CVFilename = existing.CVFilename

	if in.CV != nil {
		if app.CVFilename, err = s.storeCV(ctx, userID, in.CV); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateApplication(ctx, app)
	if err != nil {
		if app.CVFilename != existing.CVFilename {
			s.removeCV(ctx, app.CVFilename)
		}
		return nil, err
	}
	if updated.CVFilename != existing.CVFilename {
		s.removeCV(ctx, existing.CVFilename)
	}

	logger.Info(ctx, "application updated", "application_id", updated.ID)
	s.publish(ctx, EventApplicationUpdated, updated)
	return updated, nil
}

// UpdateStatus moves an application to status. The stage date is kept when
// the status is unchanged and cleared otherwise.
func (s *ApplicationService) UpdateStatus(ctx context.Context, userID, id int64, status string) (*model.Application, error) {
	if status == "" {
		return nil, apperr.InvalidInput("Missing status field")
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid status. Must be: pending, accepted, rejected, or interview")
	}

	existing, err := s.repo.GetApplication(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	stage := model.NewStage(st, model.Date{})
	if existing.Stage.Status == st {
		stage = existing.Stage
	}

	updated, err := s.repo.UpdateStage(ctx, userID, id, stage)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "application status updated", "application_id", id, "status", st)
	s.publish(ctx, EventApplicationStatusChanged, updated)
	return updated, nil
}

// Delete removes an application together with its CV.
func (s *ApplicationService) Delete(ctx context.Context, userID, id int64) error {
	existing, err := s.repo.GetApplication(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteApplication(ctx, userID, id); err != nil {
		return err
	}
	s.removeCV(ctx, existing.CVFilename)

	logger.Info(ctx, "application deleted", "application_id", id)
	s.publish(ctx, EventApplicationDeleted, existing)
	return nil
}

func (s *ApplicationService) Get(ctx context.Context, userID, id int64) (*model.Application, error) {
	return s.repo.GetApplication(ctx, userID, id)
}

func (s *ApplicationService) List(ctx context.Context, userID int64) ([]model.Application, error) {
	return s.repo.ListApplications(ctx, userID)
}

// Stats aggregates the user's applications at the current time.
func (s *ApplicationService) Stats(ctx context.Context, userID int64) (model.Stats, error) {
	apps, err := s.repo.ListApplications(ctx, userID)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Tally(apps, s.now()), nil
}

// OpenCV streams a CV only when one of the user's applications references it.
func (s *ApplicationService) OpenCV(ctx context.Context, userID int64, filename string) (io.ReadCloser, error) {
	notFound := apperr.NotFound("File not found or unauthorized")

	owned, err := s.repo.OwnsCV(ctx, userID, filename)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, notFound
	}

	rc, err := s.files.Open(ctx, filename)
	if errors.Is(err, ErrFileNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, apperr.Internal("Failed to download file", err)
	}
	return rc, nil
}

func (s *ApplicationService) publish(ctx context.Context, kind string, app *model.Application) {
	s.events.Publish(ctx, ApplicationEvent{
		Type:          kind,
		UserID:        app.UserID,
		ApplicationID: app.ID,
		Status:        string(app.Stage.Status),
		At:            s.now().UTC(),
	})
}
