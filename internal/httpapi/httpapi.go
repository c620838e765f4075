package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"schedule-backend/internal/components/assert"
	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/schedule"
)

const (
	report_http_request = "http.request"
	report_http_encode  = "http.encode"
)

const (
	DefaultMaxUploadBytes = 32 << 20
	defaultFilename       = "schedule.xlsx"
)

// Schedules is the part of schedule.Service the handlers use.
type Schedules interface {
	GetSchedule(ctx context.Context) (schedule.Schedule, error)
	LoadFromBytes(ctx context.Context, data []byte, source string) (schedule.Document, error)
	LoadFromUrl(ctx context.Context, rawUrl string) (schedule.Document, error)
	Refresh(ctx context.Context) (schedule.Document, error)
	Status(ctx context.Context) (schedule.Status, error)
}

type Options struct {
	MaxUploadBytes int64
	// AllowOrigin is sent as Access-Control-Allow-Origin when not empty.
	AllowOrigin string
}

// Server is the JSON surface over a schedule.Service.
type Server struct {
	schedules Schedules
	opts      Options
	tel       telemetry.API
}

func NewServer(schedules Schedules, opts Options, tel telemetry.API) Server {
	assert.NotNil(schedules, "schedules")
	assert.NotNil(tel, "telemetry")

	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return Server{
		schedules: schedules,
		opts:      opts,
		tel:       telemetry.NewScopedAPI("httpapi", tel),
	}
}

// Handler returns a handler serving every route.
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Mount(mux)
	return s.cors(mux)
}

func (s Server) Mount(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	mux.HandleFunc("GET /api/groups", s.handleGroups)
	mux.HandleFunc("POST /api/upload-schedule", s.handleUpload)
	mux.HandleFunc("POST /api/load-schedule-url", s.handleLoadUrl)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /{$}", s.handleStatus)
}

func (s Server) cors(next http.Handler) http.Handler {
	if s.opts.AllowOrigin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportWarning(report_http_encode, err)
	}
}

func (s Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.tel.ReportWarning(report_http_request, r.Method, r.URL.Path, err)
	} else {
		s.tel.ReportDebug("request failed", r.Method, r.URL.Path, err)
	}
	s.writeJson(w, status, errorResponse{
		Success: false,
		Error:   err.Error(),
		Kind:    kind,
	})
}

type scheduleResponse struct {
	Success     bool                `json:"success"`
	Schedule    []normalizer.Record `json:"schedule"`
	LastUpdated time.Time           `json:"lastUpdated"`
	FromCache   bool                `json:"fromCache"`
	Group       string              `json:"group,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

func (s Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := s.schedules.GetSchedule(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res := scheduleResponse{
		Success:     true,
		Schedule:    result.Records,
		LastUpdated: result.LastUpdated,
		FromCache:   result.FromCache,
	}
	group := r.URL.Query().Get("group")
	if group != "" {
		res.Group = group
		res.Schedule = schedule.FilterGroup(result.Records, group)
		if len(res.Schedule) == 0 {
			res.Suggestions = schedule.SuggestGroups(
				schedule.Groups(result.Records),
				group,
				schedule.DefaultSuggestionLimit,
			)
		}
	}
	s.writeJson(w, http.StatusOK, res)
}

type groupsResponse struct {
	Success     bool      `json:"success"`
	Groups      []string  `json:"groups"`
	LastUpdated time.Time `json:"lastUpdated"`
	FromCache   bool      `json:"fromCache"`
}

func (s Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	result, err := s.schedules.GetSchedule(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJson(w, http.StatusOK, groupsResponse{
		Success:     true,
		Groups:      schedule.Groups(result.Records),
		LastUpdated: result.LastUpdated,
		FromCache:   result.FromCache,
	})
}

type loadResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Filename string            `json:"filename,omitempty"`
	Size     int64             `json:"size"`
	Document schedule.Document `json:"document"`
}

// readUpload returns the first file part of a multipart request.
func (s Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: expected multipart/form-data: %w", errBadRequest, err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("%w: no file in request", errBadRequest)
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: read multipart: %w", errBadRequest, err)
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, "", fmt.Errorf("%w: read file: %w", errBadRequest, err)
		}
		return data, part.FileName(), nil
	}
}

func (s Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if filename == "" {
		filename = defaultFilename
	}

	doc, err := s.schedules.LoadFromBytes(r.Context(), data, filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJson(w, http.StatusOK, loadResponse{
		Success:  true,
		Message:  "schedule uploaded",
		Filename: filename,
		Size:     doc.Size,
		Document: doc,
	})
}

type loadUrlRequest struct {
	Url string `json:"url"`
}

func (s Server) handleLoadUrl(w http.ResponseWriter, r *http.Request) {
	var req loadUrlRequest
	err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: field \"url\" is required: %w", errBadRequest, err))
		return
	}
	if req.Url == "" {
		s.writeError(w, r, fmt.Errorf("%w: field \"url\" is required", errBadRequest))
		return
	}

	doc, err := s.schedules.LoadFromUrl(r.Context(), req.Url)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJson(w, http.StatusOK, loadResponse{
		Success:  true,
		Message:  "schedule loaded from url",
		Size:     doc.Size,
		Document: doc,
	})
}

func (s Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	doc, err := s.schedules.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJson(w, http.StatusOK, loadResponse{
		Success:  true,
		Message:  "schedule refreshed",
		Size:     doc.Size,
		Document: doc,
	})
}

type statusResponse struct {
	Success bool `json:"success"`
	schedule.Status
}

func (s Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.schedules.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJson(w, http.StatusOK, statusResponse{Success: true, Status: status})
}
