package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AnTengye/jobtracker/config"
	"github.com/AnTengye/jobtracker/middleware"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/AnTengye/jobtracker/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth   *service.AuthService
	config *config.AuthConfig
}

func NewAuthHandler(auth *service.AuthService, cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: auth, config: cfg}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterResponse struct {
	Message  string `json:"message"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}

// bindCredentials decodes the JSON body into req. An unreadable body and a
// failed required check are reported with different messages.
func bindCredentials(c *gin.Context, req any, missing string) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		respondError(c, apperr.InvalidInput("No data provided"))
	} else {
		respondError(c, apperr.InvalidInput(missing))
	}
	return false
}

// Register creates an account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindCredentials(c, &req, "Missing required fields: username, email, password") {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message:  "User created successfully",
		UserID:   user.ID,
		Username: user.Username,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindCredentials(c, &req, "Missing username or password") {
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user.ID, user.Username, h.config)
	if err != nil {
		respondError(c, apperr.Internal("Failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		Message:   "Login successful",
		Username:  user.Username,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// GetCurrentUser returns the current user info
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":  middleware.GetUserID(c),
		"username": middleware.GetUsername(c),
	})
}
