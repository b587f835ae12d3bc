/*
handlers.go - HTTP API handlers for the holiday engine

PURPOSE:
  Exposes the holiday engine and account service via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Holidays:
    POST   /api/holidays           Submit a holiday request (caller's own)
    GET    /api/holidays?from&to   Caller's requests, optional date range
    PATCH  /api/holidays           Change request status (admin)
    POST   /api/holidays/filter    Search requests (admin)

  Users (public):
    POST   /api/users              Register
    POST   /api/users/login        Login, returns JWT
    GET    /api/users/activate     Activate via ?token=
    POST   /api/users/refresh      Re-mail activation token
    POST   /api/users/lost         Start password recovery
    PATCH  /api/users/new          Finish password recovery

  Users (authenticated):
    GET    /api/users/in/user      Caller's profile
    GET    /api/users/in/role      Caller's role
    GET    /api/users/in/ledger    Caller's balance audit trail
    PATCH  /api/users/in/password  Change password
    PATCH  /api/users/in/email     Change email
    DELETE /api/users/in           Soft-delete own account (workers only)

  Users (admin):
    GET    /api/users/{id}         Get account
    POST   /api/users/filter       Search accounts
    PATCH  /api/users/update       Set role and allowance
    DELETE /api/users/{id}         Soft-delete account

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve caller from token claims where required
  3. Call domain logic (engine, account service)
  4. Serialize response
  5. Map domain errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, balance and range violations
  - 401: Bad credentials, disabled account
  - 404: Employee or request not found
  - 409: Overlap, duplicate period, stale version, already exists
  - 500: Internal errors
  Retryable conflicts (lost version races) carry "retryable": true.

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Bearer-token authentication
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/holiday-engine/account"
	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *holiday.Engine
	Accounts *account.Service
	Log      *logrus.Logger
}

// NewHandler creates a new handler around the engine and account service.
func NewHandler(engine *holiday.Engine, accounts *account.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Engine: engine, Accounts: accounts, Log: log}
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// CreateHoliday submits a holiday request for the caller.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	claims, _ := callerClaims(r)
	employeeID, err := claims.EmployeeID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use RFC3339)", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use RFC3339)", err)
		return
	}

	id, err := h.Engine.CreateRequest(r.Context(), employeeID, start, end)
	if err != nil {
		h.writeDomainError(w, "Failed to create holiday", err)
		return
	}

	created, err := h.Engine.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load created holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(created))
}

// ListHolidays returns the caller's requests, optionally bounded by
// from/to query parameters.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	claims, _ := callerClaims(r)
	employeeID, err := claims.EmployeeID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from format (use RFC3339)", err)
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to format (use RFC3339)", err)
		return
	}

	requests, err := h.Engine.ListByDate(r.Context(), employeeID, from, to)
	if err != nil {
		h.writeDomainError(w, "Failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(requests))
}

// ChangeHolidayStatus moves a request through its lifecycle. Admin surface.
func (h *Handler) ChangeHolidayStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Engine.ChangeStatus(r.Context(), holiday.RequestID(req.ID), holiday.Status(req.Status))
	if err != nil {
		h.writeDomainError(w, "Failed to change status", err)
		return
	}

	updated, err := h.Engine.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTO(updated))
}

// FilterHolidays searches requests by the conjunctive filter. Admin surface.
func (h *Handler) FilterHolidays(w http.ResponseWriter, r *http.Request) {
	var req HolidayFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var f holiday.RequestFilter
	if req.ID != nil {
		id := holiday.RequestID(*req.ID)
		f.ID = &id
	}
	if req.UserID != nil {
		uid := holiday.EmployeeID(*req.UserID)
		f.EmployeeID = &uid
	}
	var err error
	if f.StartDate, err = parseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use RFC3339)", err)
		return
	}
	if f.EndDate, err = parseDate(req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use RFC3339)", err)
		return
	}
	if req.Status != nil {
		status := holiday.Status(*req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown status", nil)
			return
		}
		f.Status = &status
	}

	requests, err := h.Engine.ListRequests(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to filter holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(requests))
}

// =============================================================================
// USER HANDLERS (PUBLIC)
// =============================================================================

// Register creates a new, disabled account and mails an activation token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Accounts.Register(r.Context(), holiday.RegistrationInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Age:      req.Age,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to register", err)
		return
	}

	created, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

// Login exchanges credentials for a signed API token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, err := h.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, "Login failed", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Activate enables the account bound to ?token=.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing token", nil)
		return
	}
	if err := h.Accounts.Activate(r.Context(), token); err != nil {
		h.writeDomainError(w, "Activation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// RefreshActivation re-mails an activation token.
func (h *Handler) RefreshActivation(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.RefreshActivation(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, "Failed to refresh activation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// LostPassword starts the recovery flow.
func (h *Handler) LostPassword(w http.ResponseWriter, r *http.Request) {
	var req LostPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.LostPassword(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, "Failed to start recovery", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// NewPassword finishes the recovery flow.
func (h *Handler) NewPassword(w http.ResponseWriter, r *http.Request) {
	var req NewPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.NewPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeDomainError(w, "Failed to set password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password set"})
}

// =============================================================================
// USER HANDLERS (AUTHENTICATED)
// =============================================================================

// Profile returns the caller's account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.caller(w, r)
	if !ok {
		return
	}
	e, err := h.Accounts.Get(r.Context(), employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to load account", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// Role returns the caller's role.
func (h *Handler) Role(w http.ResponseWriter, r *http.Request) {
	claims, _ := callerClaims(r)
	writeJSON(w, http.StatusOK, RoleResponse{Role: claims.Role})
}

// Ledger returns the caller's balance audit trail with the folded delta.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.caller(w, r)
	if !ok {
		return
	}

	entries, err := h.Engine.LoadLedger(r.Context(), employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to load ledger", err)
		return
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			ID:        e.ID,
			RequestID: int64(e.RequestID),
			Delta:     e.Delta.String(),
			Type:      string(e.Type),
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, LedgerResponse{
		Entries: dtos,
		Balance: holiday.LedgerBalance(entries).String(),
	})
}

// ChangePassword swaps the caller's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.ChangePassword(r.Context(), employeeID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeDomainError(w, "Failed to change password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// ChangeEmail swaps the caller's email.
func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ChangeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.ChangeEmail(r.Context(), employeeID, req.Password, req.Email); err != nil {
		h.writeDomainError(w, "Failed to change email", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "email changed"})
}

// DeleteSelf soft-deletes the caller's own account.
func (h *Handler) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteSelf(r.Context(), employeeID); err != nil {
		h.writeDomainError(w, "Failed to delete account", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// USER HANDLERS (ADMIN)
// =============================================================================

// GetEmployee returns a single account.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}

	e, err := h.Accounts.Get(r.Context(), holiday.EmployeeID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// FilterEmployees searches accounts by the conjunctive filter.
func (h *Handler) FilterEmployees(w http.ResponseWriter, r *http.Request) {
	var req EmployeeFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	employees, err := h.Accounts.List(r.Context(), holiday.EmployeeFilter{
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
		Email:    req.Email,
		MinAge:   req.MinAge,
		MaxAge:   req.MaxAge,
		MinHours: req.MinHours,
		MaxHours: req.MaxHours,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to filter employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateEmployee sets role and holiday allowance.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Accounts.Update(r.Context(), holiday.EmployeeID(req.ID), holiday.Role(req.Role), req.HolidayHours); err != nil {
		h.writeDomainError(w, "Failed to update employee", err)
		return
	}

	updated, err := h.Accounts.Get(r.Context(), holiday.EmployeeID(req.ID))
	if err != nil {
		h.writeDomainError(w, "Failed to load employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(updated))
}

// DeleteEmployee soft-deletes an account. Admins cannot delete themselves.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	claims, _ := callerClaims(r)
	actor, err := claims.EmployeeID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token subject", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}

	if err := h.Accounts.Delete(r.Context(), actor, holiday.EmployeeID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (holiday.EmployeeID, bool) {
	claims, _ := callerClaims(r)
	employeeID, err := claims.EmployeeID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token subject", nil)
		return 0, false
	}
	return employeeID, true
}

// parseDate parses an optional RFC3339 string, preserving absence as nil.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	return parseDate(&s)
}

// writeDomainError maps domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	retryable := false

	switch {
	case holiday.IsNotFound(err) || errors.Is(err, auth.ErrTokenNotFound):
		status = http.StatusNotFound
	case holiday.IsConflict(err):
		status = http.StatusConflict
		retryable = holiday.IsRetryable(err)
	case holiday.IsClientError(err) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, account.ErrSelfDelete) ||
		errors.Is(err, account.ErrAlreadyActive):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}

	resp := ErrorResponse{Error: message, Retryable: retryable}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
