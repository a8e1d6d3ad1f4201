package transport

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DeleteTaskResponse struct {
	ID string `json:"id"`
}

type RevokeResponse struct {
	Revoked string `json:"revoked"`
}

type IdentityResponse = domain.Identity

// HealthResponse reports dependency reachability as last observed by the monitor.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	LastCheck time.Time       `json:"last_check"`
	Services  map[string]bool `json:"services"`
}
