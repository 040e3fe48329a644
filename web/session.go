package web

import (
	"net/http"

	"github.com/AnTengye/jobtracker/client"
	"github.com/gin-gonic/gin"
)

// tokenCookieMaxAge matches the default token lifetime of seven days.
const tokenCookieMaxAge = 7 * 24 * 60 * 60

// cookieTokenStore keeps the session token in an HttpOnly cookie.
type cookieTokenStore struct {
	c      *gin.Context
	secure bool
	token  string
	read   bool
}

func (s *cookieTokenStore) Token() string {
	if !s.read {
		s.token, _ = s.c.Cookie(client.TokenKey)
		s.read = true
	}
	return s.token
}

func (s *cookieTokenStore) SetToken(token string) {
	s.token, s.read = token, true
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(client.TokenKey, token, tokenCookieMaxAge, "/", "", s.secure, true)
}

func (s *cookieTokenStore) ClearToken() {
	s.token, s.read = "", true
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(client.TokenKey, "", -1, "/", "", s.secure, true)
}

// redirectNavigator records where the session wants the browser to go.
type redirectNavigator struct {
	route  string
	target string
}

func (n *redirectNavigator) CurrentRoute() string { return n.route }

func (n *redirectNavigator) Navigate(route string) { n.target = route }
