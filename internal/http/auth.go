package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/Clark-Hu/course-reviews/internal/auth"
	"github.com/Clark-Hu/course-reviews/internal/domain"
	"github.com/Clark-Hu/course-reviews/internal/repository"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authResponse struct {
	Success bool          `json:"success"`
	User    *userResponse `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.respondError(w, http.StatusBadRequest, "Email address is invalid")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		s.respondError(w, http.StatusBadRequest, passwordMessage(err))
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		s.respondError(w, http.StatusBadRequest, passwordMessage(err))
		return
	}
	if err != nil {
		s.respondInternal(w, r, "hash password failed", err)
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusConflict, "User already exists")
			return
		}
		s.respondInternal(w, r, "create user failed", err)
		return
	}

	resp := toUserResponse(user)
	s.respondJSON(w, http.StatusCreated, authResponse{
		Success: true,
		User:    &resp,
		Message: "User created successfully",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := s.repo.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.respondInternal(w, r, "load user failed", err)
		return
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.respondInternal(w, r, "issue token failed", err)
		return
	}

	resp := toUserResponse(user)
	s.respondJSON(w, http.StatusOK, authResponse{
		Success: true,
		User:    &resp,
		Token:   token,
		Message: "Login successful",
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.repo.Users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "User not found")
			return
		}
		s.respondInternal(w, r, "load profile failed", err)
		return
	}
	s.respondData(w, http.StatusOK, toUserResponse(user), "")
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordMessage(err error) string {
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordLength)
	}
	return fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
}
