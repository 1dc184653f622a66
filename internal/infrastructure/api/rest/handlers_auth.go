package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/auth"
)

// AuthHandler exposes account signup/verify/login over HTTP (SPEC_FULL §6,
// supplementing spec.md's core evaluation surface with account management).
type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if bindJSON(c, &req) != nil {
		return
	}

	user, verificationToken, err := h.service.Signup(c.Request.Context(), &auth.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondAPIError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"user":               user,
		"verification_token": verificationToken,
	})
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyEmail handles POST /auth/verify.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if bindJSON(c, &req) != nil {
		return
	}

	user, err := h.service.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}
