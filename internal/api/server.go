package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/service"
)

// Server provides the HTTP API: reminder and preset CRUD, the webhook-mode
// fire endpoint, and the operational endpoints.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Reminders
	s.mux.HandleFunc("GET /api/reminders", s.handleGetReminders)
	s.mux.HandleFunc("POST /api/reminders", s.handleCreateReminder)
	s.mux.HandleFunc("GET /api/reminders/{id}", s.handleGetReminder)
	s.mux.HandleFunc("PUT /api/reminders/{id}", s.handleUpdateReminder)
	s.mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	// API – Webhook-mode alert callback
	s.mux.HandleFunc("POST /api/alerts/fire", s.handleFireAlert)

	// API – Presets
	s.mux.HandleFunc("GET /api/presets/alerts", s.handleGetAlertPresets)
	s.mux.HandleFunc("POST /api/presets/alerts", s.handleCreateAlertPreset)
	s.mux.HandleFunc("DELETE /api/presets/alerts/{id}", s.handleDeleteAlertPreset)
	s.mux.HandleFunc("GET /api/presets/contacts", s.handleGetContactPresets)
	s.mux.HandleFunc("POST /api/presets/contacts", s.handleCreateContactPreset)
	s.mux.HandleFunc("DELETE /api/presets/contacts/{id}", s.handleDeleteContactPreset)

	// Operational
	s.mux.HandleFunc("POST /api/scheduler/run", s.handleRunCycle)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireUserID reads the user_id query parameter.  It writes an error
// response and returns "" when the parameter is absent.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return "", false
	}
	return userID, true
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

type reminderRequest struct {
	UserID      string           `json:"user_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Date        string           `json:"date"` // RFC 3339
	IsRecurring bool             `json:"is_recurring"`
	Recurrence  string           `json:"recurrence"`
	StartDate   string           `json:"start_date"` // RFC 3339, optional
	EndDate     string           `json:"end_date"`   // RFC 3339, optional
	Active      *bool            `json:"active"`     // nil on update keeps the stored value
	Alerts      []models.Alert   `json:"alerts"`
	Contacts    []models.Contact `json:"contacts"`
}

// toModel converts the request into a reminder, validating the date fields
func (req *reminderRequest) toModel() (*models.Reminder, error) {
	if req.Date == "" {
		return nil, fmt.Errorf("date is required")
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be RFC 3339 format")
	}

	reminder := &models.Reminder{
		UserID:      strings.TrimSpace(req.UserID),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Date:        date,
		IsRecurring: req.IsRecurring,
		Recurrence:  strings.TrimSpace(req.Recurrence),
		Alerts:      req.Alerts,
		Contacts:    req.Contacts,
	}

	if req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start_date must be RFC 3339 format")
		}
		reminder.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end_date must be RFC 3339 format")
		}
		reminder.EndDate = &t
	}

	return reminder, nil
}

func (s *Server) handleGetReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	reminders, err := s.svc.Reminders.GetByUserID(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get reminders")
		s.respondError(w, http.StatusInternalServerError, "failed to get reminders")
		return
	}

	s.respondJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	reminder, err := req.toModel()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.svc.CreateReminder(r.Context(), reminder)
	if err != nil {
		// Validation failures surface as 400s; everything else is a 500.
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}

	reminder, err := s.svc.Reminders.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get reminder")
		s.respondError(w, http.StatusInternalServerError, "failed to get reminder")
		return
	}
	if reminder == nil {
		s.respondError(w, http.StatusNotFound, "reminder not found")
		return
	}

	s.respondJSON(w, http.StatusOK, reminder)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}

	var req reminderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	reminder, err := req.toModel()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reminder.ID = id

	// Reactivation must be explicit; an update that omits the flag keeps the
	// reminder's current state.
	if req.Active != nil {
		reminder.Active = *req.Active
	} else {
		existing, err := s.svc.Reminders.GetByID(r.Context(), id)
		if err != nil {
			s.logger.WithError(err).Error("failed to get reminder")
			s.respondError(w, http.StatusInternalServerError, "failed to get reminder")
			return
		}
		if existing == nil {
			s.respondError(w, http.StatusNotFound, "reminder not found")
			return
		}
		reminder.Active = existing.Active
	}

	updated, err := s.svc.UpdateReminder(r.Context(), reminder)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}

	if err := s.svc.DeleteReminder(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete reminder")
		s.respondError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Webhook-mode alert callback
// ---------------------------------------------------------------------------

type fireAlertRequest struct {
	ReminderID int64  `json:"reminder_id"`
	AlertID    string `json:"alert_id"`
}

// handleFireAlert is the inbound endpoint for the external delayed-delivery
// scheduler. A skipped outcome is a 200: a reminder deleted or deactivated
// between scheduling and firing is an expected race, not a fault.
func (s *Server) handleFireAlert(w http.ResponseWriter, r *http.Request) {
	var req fireAlertRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.ReminderID == 0 {
		s.respondError(w, http.StatusBadRequest, "reminder_id is required")
		return
	}
	if req.AlertID == "" {
		s.respondError(w, http.StatusBadRequest, "alert_id is required")
		return
	}

	result, err := s.svc.HandleAlertCallback(r.Context(), req.ReminderID, req.AlertID)
	if err != nil {
		s.logger.WithError(err).Error("failed to handle alert callback")
		s.respondError(w, http.StatusInternalServerError, "failed to handle alert callback")
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Presets
// ---------------------------------------------------------------------------

func (s *Server) handleGetAlertPresets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	presets, err := s.svc.AlertPresets.GetByUserID(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get alert presets")
		s.respondError(w, http.StatusInternalServerError, "failed to get alert presets")
		return
	}

	s.respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleCreateAlertPreset(w http.ResponseWriter, r *http.Request) {
	var preset models.AlertPreset
	if ok, msg := s.decodeJSON(r, &preset); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(preset.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if preset.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	for _, alert := range preset.Alerts {
		if alert.OffsetMS < service.MinAlertOffsetMS {
			s.respondError(w, http.StatusBadRequest,
				fmt.Sprintf("alert offset must be at least %d ms", service.MinAlertOffsetMS))
			return
		}
	}

	created, err := s.svc.AlertPresets.Create(r.Context(), &preset)
	if err != nil {
		s.logger.WithError(err).Error("failed to create alert preset")
		s.respondError(w, http.StatusInternalServerError, "failed to create alert preset")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAlertPreset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	if err := s.svc.AlertPresets.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete alert preset")
		s.respondError(w, http.StatusInternalServerError, "failed to delete alert preset")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetContactPresets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	presets, err := s.svc.ContactPresets.GetByUserID(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get contact presets")
		s.respondError(w, http.StatusInternalServerError, "failed to get contact presets")
		return
	}

	s.respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleCreateContactPreset(w http.ResponseWriter, r *http.Request) {
	var preset models.ContactPreset
	if ok, msg := s.decodeJSON(r, &preset); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(preset.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if preset.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	for _, contact := range preset.Contacts {
		if !contact.Mode.IsValid() {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown contact mode %q", contact.Mode))
			return
		}
	}

	created, err := s.svc.ContactPresets.Create(r.Context(), &preset)
	if err != nil {
		s.logger.WithError(err).Error("failed to create contact preset")
		s.respondError(w, http.StatusInternalServerError, "failed to create contact preset")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteContactPreset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid preset id")
		return
	}

	if err := s.svc.ContactPresets.Delete(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("failed to delete contact preset")
		s.respondError(w, http.StatusInternalServerError, "failed to delete contact preset")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Operational
// ---------------------------------------------------------------------------

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	result, ok := s.svc.TriggerCycle(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusConflict, map[string]string{"status": "cycle already running"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"evaluated": result.Evaluated,
		"outcomes":  len(result.Outcomes),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
