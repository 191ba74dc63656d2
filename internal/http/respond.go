package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
	"github.com/Clark-Hu/course-reviews/internal/reviews"
)

const maxRequestBody = 1 << 20 // 1 MiB

type envelope struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Error("failed to encode response")
		}
	}
}

func (s *Server) respondData(w http.ResponseWriter, status int, data interface{}, message string) {
	s.respondJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func (s *Server) respondPage(w http.ResponseWriter, data interface{}, p catalog.Pagination) {
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    data,
		Pagination: &paginationResponse{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	})
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, envelope{Success: false, Message: message})
}

// respondInternal logs err with the request id and hides it from the caller.
func (s *Server) respondInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.WithFields(logrus.Fields{
		"http.req.id":     middleware.GetReqID(r.Context()),
		"http.req.path":   r.URL.Path,
		"http.req.method": r.Method,
	}).WithError(err).Error(msg)
	s.respondError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		s.respondError(w, http.StatusBadRequest, "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "Unable to parse request body")
	}
}

// respondValidation writes a 400 for reviews.ValidationError. Anything else
// is unexpected and becomes a 500.
func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verr *reviews.ValidationError
	if errors.As(err, &verr) {
		s.respondError(w, http.StatusBadRequest, verr.Message)
		return
	}
	s.respondInternal(w, r, "validate review failed", err)
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

func validID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}

// optionalString distinguishes an absent JSON field from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var val string
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	o.Value = &val
	return nil
}
