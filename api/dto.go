/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DATES:
  Holiday dates travel as RFC3339 strings and are parsed in handlers. A
  missing date stays nil so the validation layer can report it as such.

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - holiday/validate.go: Violation collection
*/
package api

import (
	"time"

	"github.com/warp/holiday-engine/holiday"
)

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// HolidayDTO represents a holiday request in API responses.
type HolidayDTO struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toHolidayDTO(r holiday.HolidayRequest) HolidayDTO {
	return HolidayDTO{
		ID:        int64(r.ID),
		UserID:    int64(r.EmployeeID),
		StartDate: r.StartDate.Format(time.RFC3339),
		EndDate:   r.EndDate.Format(time.RFC3339),
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

func toHolidayDTOs(requests []holiday.HolidayRequest) []HolidayDTO {
	dtos := make([]HolidayDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toHolidayDTO(r)
	}
	return dtos
}

// CreateHolidayRequest is the request to submit a holiday.
// Dates are pointers: absence is a reportable violation, not a zero value.
type CreateHolidayRequest struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// ChangeStatusRequest moves a holiday through its lifecycle.
type ChangeStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// HolidayFilterRequest is the admin search body.
type HolidayFilterRequest struct {
	ID        *int64  `json:"id,omitempty"`
	UserID    *int64  `json:"user_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses. The password hash
// never leaves the server.
type EmployeeDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Age          int    `json:"age"`
	Role         string `json:"role"`
	HolidayHours int64  `json:"holiday_hours"`
	Enabled      bool   `json:"enabled"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func toEmployeeDTO(e holiday.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           int64(e.ID),
		Name:         e.Name,
		Surname:      e.Surname,
		Username:     e.Username,
		Email:        e.Email,
		Age:          e.Age,
		Role:         string(e.Role),
		HolidayHours: e.HolidayHours,
		Enabled:      e.Enabled,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
}

// LoginRequest exchanges credentials for an API token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed API token.
type LoginResponse struct {
	Token string `json:"token"`
}

// RefreshRequest re-mails an activation token.
type RefreshRequest struct {
	Email string `json:"email"`
}

// LostPasswordRequest starts the recovery flow.
type LostPasswordRequest struct {
	Email string `json:"email"`
}

// NewPasswordRequest finishes the recovery flow.
type NewPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest swaps the password of the caller.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeEmailRequest swaps the email of the caller.
type ChangeEmailRequest struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

// UpdateEmployeeRequest is the admin adjustment of role and allowance.
type UpdateEmployeeRequest struct {
	ID           int64  `json:"id"`
	Role         string `json:"role"`
	HolidayHours int64  `json:"holiday_hours"`
}

// EmployeeFilterRequest is the admin search body.
type EmployeeFilterRequest struct {
	Name     *string `json:"name,omitempty"`
	Surname  *string `json:"surname,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	MinAge   *int    `json:"min_age,omitempty"`
	MaxAge   *int    `json:"max_age,omitempty"`
	MinHours *int64  `json:"min_hours,omitempty"`
	MaxHours *int64  `json:"max_hours,omitempty"`
}

// RoleResponse answers the caller's role probe.
type RoleResponse struct {
	Role string `json:"role"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// LedgerEntryDTO represents one balance mutation in the audit trail.
type LedgerEntryDTO struct {
	ID        int64  `json:"id"`
	RequestID int64  `json:"request_id"`
	Delta     string `json:"delta"`
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

// LedgerResponse wraps the entries with the folded balance delta.
type LedgerResponse struct {
	Entries []LedgerEntryDTO `json:"entries"`
	Balance string           `json:"balance"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error envelope. Retryable is set for
// transient conflicts worth re-submitting.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
