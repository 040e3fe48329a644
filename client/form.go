package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/AnTengye/jobtracker/model"
)

// File is a CV chosen for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ApplicationPayload is the content of a create or update submission.
type ApplicationPayload struct {
	Company         string
	ApplicationDate model.Date
	Stage           model.Stage
	CoverLetter     string
	CV              *File
}

// stageDateField names the form field carrying the date of status.
func stageDateField(status model.Status) string {
	switch status {
	case model.StatusInterview:
		return "interview_date"
	case model.StatusAccepted:
		return "accepted_date"
	case model.StatusRejected:
		return "rejected_date"
	}
	return ""
}

// BuildApplicationForm encodes p as multipart/form-data. Only the date of the
// current status is sent.
func BuildApplicationForm(p ApplicationPayload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"company", p.Company},
		{"application_date", p.ApplicationDate.String()},
		{"cover_letter", p.CoverLetter},
		{"status", string(p.Stage.Status)},
	}
	if d, ok := p.Stage.DateFor(p.Stage.Status); ok {
		fields = append(fields, [2]string{stageDateField(p.Stage.Status), d.String()})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if p.CV != nil {
		contentType := p.CV.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="cv"; filename=%q`, p.CV.Name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create cv part: %w", err)
		}
		if _, err := part.Write(p.CV.Data); err != nil {
			return nil, "", fmt.Errorf("write cv: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
