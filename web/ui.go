// Package web serves the browser UI. Every page talks to the REST API
// through the client package, the same way an external frontend would.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AnTengye/jobtracker/client"
	"github.com/AnTengye/jobtracker/config"
	"github.com/AnTengye/jobtracker/middleware"
	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/logger"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// multipart parts above this size are spooled to disk
const maxFormMemory = 8 << 20

var errNotPDF = errors.New("cv is not a pdf")

type UI struct {
	api    *client.Client
	config *config.WebConfig
	tmpl   *template.Template
	now    func() time.Time
}

// New builds the UI on top of api. api must not carry a session; one is
// attached per request from the token cookie.
func New(api *client.Client, cfg *config.WebConfig) (*UI, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &UI{api: api, config: cfg, tmpl: tmpl, now: time.Now}, nil
}

// Mount installs the templates on r and registers the pages.
func (u *UI) Mount(r *gin.Engine, handlers ...gin.HandlerFunc) {
	r.SetHTMLTemplate(u.tmpl)

	g := r.Group("/", handlers...)
	{
		g.GET(client.RouteHome, u.Home)
		g.GET(client.RouteLogin, u.LoginPage)
		g.POST(client.RouteLogin, u.Login)
		g.GET(client.RouteRegister, u.RegisterPage)
		g.POST(client.RouteRegister, u.Register)
		g.POST("/logout", u.Logout)
		g.POST("/applications", u.Create)
		g.POST("/applications/:id", u.Update)
		g.GET("/applications/:id/delete", u.ConfirmDelete)
		g.POST("/applications/:id/delete", u.Delete)
		g.GET("/calendar", u.Calendar)
		g.GET("/cv/:filename", u.DownloadCV)
	}
}

// request is the per-request view of the API: a client bound to the token
// cookie and a navigator that turns session expiry into a redirect.
type request struct {
	c   *gin.Context
	api *client.Client
	nav *redirectNavigator
}

func (u *UI) begin(c *gin.Context) *request {
	c.Request = c.Request.WithContext(client.WithForwardedFor(c.Request.Context(), c.ClientIP()))
	nav := &redirectNavigator{route: c.Request.URL.Path}
	store := &cookieTokenStore{c: c, secure: u.config.CookieSecure}
	return &request{
		c:   c,
		api: u.api.WithSession(client.NewSession(store, nav)),
		nav: nav,
	}
}

func (r *request) authenticated() bool {
	return r.api.Session().Authenticated()
}

// expired redirects when the backend rejected the session. It reports
// whether the response has been written.
func (r *request) expired() bool {
	if r.nav.target != "" {
		r.c.Redirect(http.StatusSeeOther, r.nav.target)
		return true
	}
	if !r.authenticated() {
		r.c.Redirect(http.StatusSeeOther, client.RouteHome)
		return true
	}
	return false
}

// requireSession sends visitors without a token to the login page.
func (r *request) requireSession() bool {
	if r.authenticated() {
		return true
	}
	r.c.Redirect(http.StatusSeeOther, client.RouteLogin)
	return false
}

// statusFor picks the response status of a page re-rendered after err.
func statusFor(err error) int {
	if code := client.StatusCode(err); code != 0 {
		return code
	}
	if errors.Is(err, client.ErrUnreachable) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

type stageField struct {
	Status model.Status
	Name   string
}

var stageFields = []stageField{
	{model.StatusInterview, "interview_date"},
	{model.StatusAccepted, "accepted_date"},
	{model.StatusRejected, "rejected_date"},
}

type page struct {
	Title       string
	Notice      string
	Shell       *Shell
	Dashboard   *Dashboard
	Calendar    *Calendar
	Confirm     *Card
	Statuses    []model.Status
	StageFields []stageField
	Views       []View
}

func (u *UI) renderAuth(c *gin.Context, status int, shell *Shell) {
	title := "Login"
	if shell.Screen() == ScreenRegister {
		title = "Register"
	}
	c.HTML(status, "auth.html", page{Title: title, Shell: shell})
}

func (u *UI) renderDashboard(c *gin.Context, status int, d *Dashboard, notice string) {
	c.HTML(status, "dashboard.html", page{
		Title:       "Job Application Tracker",
		Notice:      notice,
		Dashboard:   d,
		Statuses:    model.Statuses,
		StageFields: stageFields,
	})
}

// Home shows the dashboard, or the login screen without a session.
func (u *UI) Home(c *gin.Context) {
	r := u.begin(c)
	shell := NewShell(r.api.Session())
	if shell.Screen() != ScreenDashboard {
		u.renderAuth(c, http.StatusOK, shell)
		return
	}

	d := NewDashboard(u.now)
	if err := d.Mount(c.Request.Context(), r.api); err != nil && r.expired() {
		return
	}

	status := http.StatusOK
	// A failed list load leaves nothing to look up; keep its banner.
	if edit := c.Query("edit"); edit != "" && d.Error == "" {
		id, _ := strconv.ParseInt(edit, 10, 64)
		if !d.Edit(id) {
			d.Error = "Application not found"
			status = http.StatusNotFound
		}
	}
	u.renderDashboard(c, status, d, "")
}

func (u *UI) LoginPage(c *gin.Context) {
	r := u.begin(c)
	if r.authenticated() {
		c.Redirect(http.StatusSeeOther, client.RouteHome)
		return
	}
	shell := NewShell(r.api.Session())
	if c.Query("registered") != "" {
		shell.Notice = msgRegistered
	}
	u.renderAuth(c, http.StatusOK, shell)
}

func (u *UI) Login(c *gin.Context) {
	r := u.begin(c)
	shell := NewShell(r.api.Session())
	if err := shell.Login(c.Request.Context(), r.api, c.PostForm("username"), c.PostForm("password")); err != nil {
		u.renderAuth(c, statusFor(err), shell)
		return
	}
	logger.Info(c.Request.Context(), "user signed in", "username", c.PostForm("username"))
	c.Redirect(http.StatusSeeOther, client.RouteHome)
}

func (u *UI) RegisterPage(c *gin.Context) {
	r := u.begin(c)
	if r.authenticated() {
		c.Redirect(http.StatusSeeOther, client.RouteHome)
		return
	}
	shell := NewShell(r.api.Session())
	shell.ShowRegister(true)
	u.renderAuth(c, http.StatusOK, shell)
}

// Register returns to the login screen once the account exists.
func (u *UI) Register(c *gin.Context) {
	r := u.begin(c)
	shell := NewShell(r.api.Session())
	shell.ShowRegister(true)
	err := shell.Register(c.Request.Context(), r.api, c.PostForm("username"), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		u.renderAuth(c, statusFor(err), shell)
		return
	}
	c.Redirect(http.StatusSeeOther, client.RouteLogin+"?registered=1")
}

func (u *UI) Logout(c *gin.Context) {
	r := u.begin(c)
	NewShell(r.api.Session()).Logout(r.api)
	c.Redirect(http.StatusSeeOther, client.RouteLogin)
}

// mountDashboard loads the list for a mutation. It reports false when the
// response has already been written.
func (u *UI) mountDashboard(r *request) (*Dashboard, bool) {
	if !r.requireSession() {
		return nil, false
	}
	d := NewDashboard(u.now)
	if err := d.Mount(r.c.Request.Context(), r.api); err != nil && r.expired() {
		return nil, false
	}
	return d, true
}

func (u *UI) Create(c *gin.Context) {
	r := u.begin(c)
	d, ok := u.mountDashboard(r)
	if !ok {
		return
	}
	u.submit(r, d, http.StatusCreated, "Application added")
}

func (u *UI) Update(c *gin.Context) {
	r := u.begin(c)
	d, ok := u.mountDashboard(r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if !d.Edit(id) {
		d.Error = "Application not found"
		u.renderDashboard(c, http.StatusNotFound, d, "")
		return
	}
	u.submit(r, d, http.StatusOK, "Application updated")
}

// submit binds the posted form onto d.Form, sends it and renders the
// dashboard with the returned record merged in.
func (u *UI) submit(r *request, d *Dashboard, okStatus int, notice string) {
	if err := bindForm(r.c, d.Form); err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		u.renderDashboard(r.c, status, d, "")
		return
	}
	if _, err := d.Submit(r.c.Request.Context(), r.api); err != nil {
		if r.expired() {
			return
		}
		u.renderDashboard(r.c, statusFor(err), d, "")
		return
	}
	u.renderDashboard(r.c, okStatus, d, notice)
}

// bindForm copies the posted fields and the optional CV onto f.
func bindForm(c *gin.Context, f *Form) error {
	err := c.Request.ParseMultipartForm(maxFormMemory)
	isMultipart := err == nil
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			f.Error = middleware.TooLargeMessage(maxErr.Limit)
		} else {
			f.Error = "Invalid form data"
		}
		return err
	}

	f.Company = c.PostForm("company")
	f.ApplicationDate = c.PostForm("application_date")
	f.Status = model.Status(c.PostForm("status"))
	if !f.Status.Valid() {
		f.Status = model.StatusPending
	}
	f.StageDate = ""
	for _, sf := range stageFields {
		if sf.Status == f.Status {
			f.StageDate = c.PostForm(sf.Name)
		}
	}
	f.CoverLetter = c.PostForm("cover_letter")
	if !isMultipart {
		return nil
	}

	fh, err := c.FormFile("cv")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		f.Error = "Invalid form data"
		return err
	}
	file, err := fh.Open()
	if err != nil {
		f.Error = "Invalid form data"
		return err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		f.Error = "Invalid form data"
		return err
	}
	if !f.SelectFile(fh.Filename, fh.Header.Get("Content-Type"), data) {
		return errNotPDF
	}
	return nil
}

func (u *UI) ConfirmDelete(c *gin.Context) {
	r := u.begin(c)
	d, ok := u.mountDashboard(r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	app, found := d.Find(id)
	if !found {
		d.Error = "Application not found"
		u.renderDashboard(c, http.StatusNotFound, d, "")
		return
	}
	card := NewCard(*app)
	c.HTML(http.StatusOK, "confirm.html", page{Title: "Delete application", Confirm: &card})
}

// Delete removes the record only when the confirmation form said yes.
func (u *UI) Delete(c *gin.Context) {
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, client.RouteHome)
		return
	}
	r := u.begin(c)
	d, ok := u.mountDashboard(r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if err := d.Delete(c.Request.Context(), r.api, id, true); err != nil {
		if r.expired() {
			return
		}
		u.renderDashboard(c, statusFor(err), d, "")
		return
	}
	u.renderDashboard(c, http.StatusOK, d, "Application deleted")
}

func (u *UI) Calendar(c *gin.Context) {
	r := u.begin(c)
	if !r.requireSession() {
		return
	}

	cal := NewCalendar(model.DateOf(u.now()))
	if date, err := model.ParseDate(c.Query("date")); err == nil && !date.IsZero() {
		cal.Date = date
	}
	cal.SetView(View(c.Query("view")))
	cal.Navigate(Navigation(c.Query("nav")))

	if err := cal.Mount(c.Request.Context(), r.api); err != nil && r.expired() {
		return
	}
	if id := c.Query("event"); id != "" {
		cal.Select(id)
	}

	c.HTML(http.StatusOK, "calendar.html", page{
		Title:    "Application Calendar",
		Calendar: cal,
		Statuses: model.Statuses,
		Views:    Views,
	})
}

// DownloadCV proxies the stored CV to the browser.
func (u *UI) DownloadCV(c *gin.Context) {
	r := u.begin(c)
	if !r.requireSession() {
		return
	}
	filename := c.Param("filename")
	body, err := r.api.DownloadCV(c.Request.Context(), filename)
	if err != nil {
		if r.expired() {
			return
		}
		c.String(statusFor(err), client.ErrorMessage(err))
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}

// NavURL links to the calendar moved by nav.
func (c *Calendar) NavURL(nav Navigation) string {
	return calendarURL(c.View, c.Date, url.Values{"nav": {string(nav)}})
}

// ViewURL links to the calendar in view v at the same date.
func (c *Calendar) ViewURL(v View) string {
	return calendarURL(v, c.Date, nil)
}

// EventURL links to the calendar with event id selected.
func (c *Calendar) EventURL(id string) string {
	return calendarURL(c.View, c.Date, url.Values{"event": {id}})
}

func calendarURL(v View, date model.Date, extra url.Values) string {
	q := url.Values{"view": {string(v)}}
	if !date.IsZero() {
		q.Set("date", date.String())
	}
	for k, vs := range extra {
		q[k] = vs
	}
	return "/calendar?" + q.Encode()
}
