package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"timer-api/pkg/timer"
)

type server struct {
	svc   *timer.Service
	store *SQLStore
}

func newRouter(svc *timer.Service, store *SQLStore) chi.Router {
	s := &server{svc: svc, store: store}

	router := chi.NewRouter()
	router.Use(middleware.Logger)

	router.Get("/health", s.handleHealth)
	router.Get("/api/timer", s.handleGetTimer)
	router.Post("/api/timer", s.handleSetTimer)
	router.Get("/api/schedules", s.handleListSchedules)
	router.Post("/api/schedule", s.handleCreateSchedule)
	router.Delete("/api/schedule/{id}", s.handleDeleteSchedule)
	return router
}

func startServer(addr string, svc *timer.Service, store *SQLStore) {
	log.Printf("Server listening on http://%s", addr)
	err := http.ListenAndServe(addr, newRouter(svc, store))
	if err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// GET /api/timer - Current countdown state
func (s *server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Countdown(r.Context()))
}

// POST /api/timer - Start a countdown right away
func (s *server) handleSetTimer(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Hours    any    `json:"hours"`
		Password string `json:"password"`
	}{}
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}

	hours, err := parseNumber(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours must be a positive number")
		return
	}

	err = s.svc.SetTimer(r.Context(), hours, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/schedule - Create a scheduled activation
func (s *server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Timestamp any    `json:"timestamp"`
		StartDate string `json:"startDate"`
		StartTime string `json:"startTime"`
		Timezone  any    `json:"timezone"`
		Duration  any    `json:"duration"`
		Password  string `json:"password"`
	}{}
	err := json.NewDecoder(r.Body).Decode(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}

	duration, err := parseNumber(req.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration must be a positive number")
		return
	}

	in := timer.StartInput{
		Date:      req.StartDate,
		TimeOfDay: req.StartTime,
	}
	if req.Timestamp != nil {
		ts, err := parseNumber(req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "timestamp must be a number")
			return
		}
		v := int64(ts)
		in.Timestamp = &v
	}
	if req.Timezone != nil {
		tz, err := parseNumber(req.Timezone)
		if err != nil {
			writeError(w, http.StatusBadRequest, "timezone must be an offset in minutes")
			return
		}
		in.TZOffsetMinutes = int(tz)
	}

	sched, err := s.svc.CreateSchedule(r.Context(), in, duration, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"schedule": sched,
	})
}

// GET /api/schedules - Upcoming and running schedules, soonest first
func (s *server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": s.svc.ListSchedules(r.Context()),
	})
}

// DELETE /api/schedule/{id} - Remove a schedule
func (s *server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	password := r.URL.Query().Get("password")

	err := s.svc.DeleteSchedule(r.Context(), id, password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /health - Store connectivity plus a record summary
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := s.store.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "ERROR",
			"error":  err.Error(),
		})
		return
	}

	summary := s.svc.Summary(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "OK",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"timerActive":    summary.TimerActive,
		"scheduledCount": summary.ScheduledCount,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timer.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Invalid password")
	case errors.Is(err, timer.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, timer.ErrNotFound):
		writeError(w, http.StatusNotFound, "Schedule not found")
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// parseNumber accepts JSON numbers and numeric strings. The browser client
// sends form field values as strings, so both arrive in practice.
func parseNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("value %v is not a number", v)
	}
}
