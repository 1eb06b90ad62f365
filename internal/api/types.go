package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/scheduler/internal/schedule"
)

type ValidateAppointmentRequest struct {
	StaffID        string   `json:"staff_id" validate:"required,uuid4"`
	ServiceID      string   `json:"service_id" validate:"required,uuid4"`
	RequestedStart string   `json:"requested_start" validate:"required"`
	AddonIDs       []string `json:"addon_ids" validate:"dive,uuid4"`
	CustomerID     string   `json:"customer_id" validate:"omitempty,uuid4"`
}

type ReserveSlotRequest struct {
	StaffID    string `json:"staff_id" validate:"required,uuid4"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	TTLSeconds int    `json:"ttl_seconds" validate:"omitempty,min=30,max=600"`
}

type ReservationResponse struct {
	Token     string    `json:"token"`
	StaffID   uuid.UUID `json:"staff_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AvailabilityResponse struct {
	StaffID uuid.UUID       `json:"staff_id"`
	Slots   []schedule.Slot `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
