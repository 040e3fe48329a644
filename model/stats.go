package model

import "time"

// Stats aggregates a user's applications by status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Interview int `json:"interview"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	ThisMonth int `json:"this_month"`
}

// Tally counts apps by status; ThisMonth counts application dates falling in
// the calendar month of now.
func Tally(apps []Application, now time.Time) Stats {
	var s Stats
	for _, app := range apps {
		s.Total++
		switch app.Stage.Status {
		case StatusPending:
			s.Pending++
		case StatusInterview:
			s.Interview++
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		}
		d := app.ApplicationDate.Time()
		if d.Year() == now.Year() && d.Month() == now.Month() {
			s.ThisMonth++
		}
	}
	return s
}

// Count returns the number for a single status.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusPending:
		return s.Pending
	case StatusInterview:
		return s.Interview
	case StatusAccepted:
		return s.Accepted
	case StatusRejected:
		return s.Rejected
	}
	return 0
}
