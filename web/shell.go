package web

import (
	"context"

	"github.com/AnTengye/jobtracker/client"
)

// AuthAPI is the part of the API the shell uses.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*client.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (*client.RegisterResult, error)
	Logout()
}

// Screen is the top-level page the shell shows.
type Screen string

const (
	ScreenLogin     Screen = "login"
	ScreenRegister  Screen = "register"
	ScreenDashboard Screen = "dashboard"
)

const msgRegistered = "Registration successful! Please log in."

// Shell gates the application on a stored token and switches between the
// login and register screens while signed out.
type Shell struct {
	Error  string
	Notice string

	session      *client.Session
	showRegister bool
}

func NewShell(session *client.Session) *Shell {
	return &Shell{session: session}
}

// Screen reports what to show. A stored token counts as signed in; the
// backend rejects a stale one on the first call.
func (s *Shell) Screen() Screen {
	switch {
	case s.session.Authenticated():
		return ScreenDashboard
	case s.showRegister:
		return ScreenRegister
	default:
		return ScreenLogin
	}
}

// ShowRegister toggles between the register and login screens.
func (s *Shell) ShowRegister(show bool) {
	s.showRegister = show
	s.Error = ""
}

// Login starts a session; on success the shell shows the dashboard.
func (s *Shell) Login(ctx context.Context, api AuthAPI, username, password string) error {
	s.Error = ""
	if _, err := api.Login(ctx, username, password); err != nil {
		s.Error = client.ErrorMessage(err)
		return err
	}
	s.showRegister = false
	return nil
}

// Register creates an account and returns to the login screen.
func (s *Shell) Register(ctx context.Context, api AuthAPI, username, email, password string) error {
	s.Error = ""
	if _, err := api.Register(ctx, username, email, password); err != nil {
		s.Error = client.ErrorMessage(err)
		return err
	}
	s.showRegister = false
	s.Notice = msgRegistered
	return nil
}

// Logout drops the stored token.
func (s *Shell) Logout(api AuthAPI) {
	api.Logout()
	s.showRegister = false
}
