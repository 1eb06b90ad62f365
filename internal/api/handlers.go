package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/glowdesk/scheduler/internal/metrics"
	redisclient "github.com/glowdesk/scheduler/internal/redis"
	"github.com/glowdesk/scheduler/internal/schedule"
	"github.com/glowdesk/scheduler/internal/timewindow"
)

func staffAvailabilityHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()
		start, err := time.Parse(time.RFC3339, q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339")
			return
		}

		query := schedule.AvailabilityQuery{
			StaffID:     staffID,
			Window:      timewindow.New(start, end),
			IncludeBusy: q.Get("include_busy") == "true",
		}
		if v := q.Get("service_id"); v != "" {
			serviceID, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			query.ServiceID = &serviceID
		}
		if v := q.Get("addon_ids"); v != "" {
			ids, err := parseUUIDList(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_addon_ids", err.Error())
				return
			}
			query.AddonIDs = ids
		}
		if v := q.Get("slot_minutes"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_slot_minutes", "slot_minutes must be a positive integer")
				return
			}
			query.SlotMinutes = n
		}

		slots, err := svc.GetStaffAvailability(r.Context(), query)
		if err != nil {
			handleEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{StaffID: staffID, Slots: slots})
	}
}

func validateAppointmentHandler(svc Scheduler, validate *validator.Validate, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		requestedStart, err := time.Parse(time.RFC3339, req.RequestedStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_requested_start", "requested_start must be RFC3339")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		vr := schedule.ValidationRequest{
			StaffID:        staffID,
			ServiceID:      serviceID,
			RequestedStart: requestedStart,
		}
		for _, raw := range req.AddonIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_addon_ids", "addon_ids must be valid UUIDs")
				return
			}
			vr.AddonIDs = append(vr.AddonIDs, id)
		}
		if req.CustomerID != "" {
			cid, err := uuid.Parse(req.CustomerID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a valid UUID")
				return
			}
			vr.CustomerID = &cid
		}

		result, err := svc.ValidateAppointment(r.Context(), vr)
		if err != nil {
			handleEngineError(w, err)
			return
		}

		if m != nil {
			m.Validations.WithLabelValues(strconv.FormatBool(result.Valid)).Inc()
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func nextAvailableHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		maxDays := 0
		if v := r.URL.Query().Get("max_days_ahead"); v != "" {
			if maxDays, err = strconv.Atoi(v); err != nil || maxDays < 0 {
				writeError(w, http.StatusBadRequest, "invalid_max_days_ahead", "max_days_ahead must be a non-negative integer")
				return
			}
		}

		slot, err := svc.FindNextAvailable(r.Context(), staffID, serviceID, maxDays)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slot)
	}
}

func reserveSlotHandler(holds ReservationStore, validate *validator.Validate, defaultTTL time.Duration, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339")
			return
		}
		if !end.After(start) {
			writeError(w, http.StatusBadRequest, "invalid_interval", "end must be after start")
			return
		}

		ttl := defaultTTL
		if req.TTLSeconds > 0 {
			ttl = time.Duration(req.TTLSeconds) * time.Second
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}
		token, err := holds.Acquire(r.Context(), staffID, start, end, ttl)
		if err != nil {
			if errors.Is(err, redisclient.ErrSlotHeld) {
				if m != nil {
					m.HoldConflicts.Inc()
				}
				writeError(w, http.StatusConflict, "slot_held", "slot is currently held by another booking, please retry")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		if m != nil {
			m.HoldsAcquired.Inc()
		}
		writeJSON(w, http.StatusCreated, ReservationResponse{
			Token:     token,
			StaffID:   staffID,
			Start:     start,
			End:       end,
			ExpiresAt: time.Now().Add(ttl),
		})
	}
}

func releaseReservationHandler(holds ReservationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			writeError(w, http.StatusBadRequest, "invalid_token", "token is required")
			return
		}
		// Idempotent: releasing an expired or unknown token succeeds.
		if err := holds.Release(r.Context(), token); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func businessHoursHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		hours, err := svc.BusinessHours(r.Context(), date)
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hours)
	}
}

func staffScheduleHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}
		start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339")
			return
		}

		sched, err := svc.GetStaffSchedule(r.Context(), staffID, timewindow.New(start, end))
		if err != nil {
			handleEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sched)
	}
}

func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, schedule.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, schedule.ErrAddonNotFound):
		writeError(w, http.StatusNotFound, "addon_not_found", err.Error())
	case errors.Is(err, schedule.ErrBusinessNotFound):
		writeError(w, http.StatusNotFound, "business_not_found", err.Error())
	case errors.Is(err, schedule.ErrStaffNotBookable):
		writeError(w, http.StatusConflict, "staff_unavailable", err.Error())
	case errors.Is(err, schedule.ErrAddonIncompatible):
		writeError(w, http.StatusConflict, "addon_incompatible", err.Error())
	case errors.Is(err, schedule.ErrServiceNotActive):
		writeError(w, http.StatusConflict, "service_unavailable", err.Error())
	case errors.Is(err, schedule.ErrNoSlotAvailable):
		writeError(w, http.StatusNotFound, "no_slot_available", err.Error())
	case errors.Is(err, schedule.ErrInvalidQueryWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parseUUIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.New("addon_ids must be a comma-separated list of UUIDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
