package httpx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/roomly/go-room-booking/internal/booking"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &booking.ValidationError{Msg: "end before start"}, http.StatusBadRequest},
		{"not found", &booking.NotFoundError{Resource: "room", ID: "r1"}, http.StatusNotFound},
		{"conflict", &booking.ConflictError{}, http.StatusConflict},
		{"cancellation window", &booking.CancellationWindowError{}, http.StatusUnprocessableEntity},
		{"overload", &booking.OverloadError{Attempts: 3}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
