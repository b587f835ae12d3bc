package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/holiday-engine/account"
	"github.com/warp/holiday-engine/api"
	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
	"github.com/warp/holiday-engine/holiday/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// captureMailer records outgoing tokens so tests can walk activation flows.
type captureMailer struct {
	activations []string
	recoveries  []string
}

func (m *captureMailer) SendActivation(_ context.Context, _, token string) error {
	m.activations = append(m.activations, token)
	return nil
}

func (m *captureMailer) SendRecovery(_ context.Context, _, token string) error {
	m.recoveries = append(m.recoveries, token)
	return nil
}

type testAPI struct {
	server *httptest.Server
	svc    *account.Service
	mailer *captureMailer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mem := store.NewMemory()
	tokens := store.NewTokenMemory()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	mailer := &captureMailer{}

	cfg := account.DefaultConfig()
	cfg.DefaultHours = 40

	svc := account.NewService(mem, tokens, issuer, mailer, cfg, nil)
	engine := holiday.NewEngine(mem, nil)

	handler := api.NewHandler(engine, svc, nil)
	server := httptest.NewServer(api.NewRouter(handler, issuer))
	t.Cleanup(server.Close)

	return &testAPI{server: server, svc: svc, mailer: mailer}
}

// do issues a JSON request, with a bearer token when one is given.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// workerToken registers, activates and logs in a worker account.
func (a *testAPI) workerToken(t *testing.T, username, email string) string {
	t.Helper()
	ctx := context.Background()

	_, err := a.svc.Register(ctx, holiday.RegistrationInput{
		Name: "Jane", Surname: "Doe", Username: username,
		Password: "Secret123", Email: email, Age: 30,
	})
	require.NoError(t, err)

	activation := a.mailer.activations[len(a.mailer.activations)-1]
	require.NoError(t, a.svc.Activate(ctx, activation))

	token, err := a.svc.Login(ctx, username, "Secret123")
	require.NoError(t, err)
	return token
}

// adminToken seeds and logs in an administrator.
func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	_, err := a.svc.SeedAdmin(ctx, "boss", "Admin1234", "boss@example.com", 200)
	require.NoError(t, err)

	token, err := a.svc.Login(ctx, "boss", "Admin1234")
	require.NoError(t, err)
	return token
}

// June 2025: the 2nd is a Monday.
func isoDay(day int) string {
	return time.Date(2025, time.June, day, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

// =============================================================================
// ACCOUNT ROUTES
// =============================================================================

func TestAPI_Register_ReturnsDisabledAccount(t *testing.T) {
	// GIVEN: A running server
	// WHEN: Registering through the public route
	// THEN: 201 with a disabled account and no credential material

	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"name": "Jane", "surname": "Doe", "username": "jane",
		"password": "Secret123", "email": "jane@example.com", "age": 30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dto := decode[api.EmployeeDTO](t, resp)
	assert.Equal(t, "jane", dto.Username)
	assert.False(t, dto.Enabled)
	assert.Equal(t, int64(40), dto.HolidayHours)
}

func TestAPI_Register_DuplicateUsername_Conflict(t *testing.T) {
	a := newTestAPI(t)
	a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"name": "Jane", "surname": "Doe", "username": "jane",
		"password": "Secret123", "email": "other@example.com", "age": 30,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_Register_InvalidInput_BadRequest(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"name": "J4ne", "surname": "Doe", "username": "jane",
		"password": "weak", "email": "bad", "age": 12,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "age should be at least 18")
}

func TestAPI_Login_BeforeActivation_Unauthorized(t *testing.T) {
	a := newTestAPI(t)

	_, err := a.svc.Register(context.Background(), holiday.RegistrationInput{
		Name: "Jane", Surname: "Doe", Username: "jane",
		Password: "Secret123", Email: "jane@example.com", Age: 30,
	})
	require.NoError(t, err)

	resp := a.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "jane", "password": "Secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ActivateAndLogin_RoundTrip(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodPost, "/api/users", "", map[string]any{
		"name": "Jane", "surname": "Doe", "username": "jane",
		"password": "Secret123", "email": "jane@example.com", "age": 30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, a.mailer.activations, 1)

	resp = a.do(t, http.MethodGet, "/api/users/activate?token="+a.mailer.activations[0], "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "jane", "password": "Secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login := decode[api.LoginResponse](t, resp)
	assert.NotEmpty(t, login.Token)
}

func TestAPI_Activate_UnknownToken_NotFound(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(t, http.MethodGet, "/api/users/activate?token=nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Profile_RequiresToken(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(t, http.MethodGet, "/api/users/in/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/users/in/user", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Profile_ReturnsCaller(t *testing.T) {
	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodGet, "/api/users/in/user", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dto := decode[api.EmployeeDTO](t, resp)
	assert.Equal(t, "jane", dto.Username)
	assert.Equal(t, "worker", dto.Role)
}

func TestAPI_PasswordRecovery_RoundTrip(t *testing.T) {
	a := newTestAPI(t)
	a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/users/lost", "", map[string]string{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, a.mailer.recoveries, 1)

	resp = a.do(t, http.MethodPatch, "/api/users/new", "", map[string]string{
		"token": a.mailer.recoveries[0], "password": "Fresh456A",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "jane", "password": "Fresh456A",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// ADMIN ROUTES
// =============================================================================

func TestAPI_AdminRoutes_RequireAdminRole(t *testing.T) {
	a := newTestAPI(t)
	worker := a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/users/filter", worker, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodPatch, "/api/holidays", worker, map[string]any{"id": 1, "status": "accepted"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_UpdateEmployee_SetsRoleAndAllowance(t *testing.T) {
	a := newTestAPI(t)
	a.workerToken(t, "jane", "jane@example.com")
	admin := a.adminToken(t)

	jane, err := a.svc.List(context.Background(), holiday.EmployeeFilter{Username: strPtr("jane")})
	require.NoError(t, err)
	require.Len(t, jane, 1)

	resp := a.do(t, http.MethodPatch, "/api/users/update", admin, map[string]any{
		"id": jane[0].ID, "role": "admin", "holiday_hours": 120,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dto := decode[api.EmployeeDTO](t, resp)
	assert.Equal(t, "admin", dto.Role)
	assert.Equal(t, int64(120), dto.HolidayHours)
}

func TestAPI_DeleteEmployee_SelfDelete_BadRequest(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t)

	boss, err := a.svc.List(context.Background(), holiday.EmployeeFilter{Username: strPtr("boss")})
	require.NoError(t, err)
	require.Len(t, boss, 1)

	resp := a.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", boss[0].ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func strPtr(s string) *string { return &s }

// =============================================================================
// HOLIDAY ROUTES
// =============================================================================

func TestAPI_CreateHoliday_DebitsBalance(t *testing.T) {
	// GIVEN: A worker with a 40 hour allowance
	// WHEN: Requesting a full business week
	// THEN: 201 with a processing request and the balance debited to zero

	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(9),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dto := decode[api.HolidayDTO](t, resp)
	assert.Equal(t, "processing", dto.Status)

	resp = a.do(t, http.MethodGet, "/api/users/in/user", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[api.EmployeeDTO](t, resp)
	assert.Equal(t, int64(0), profile.HolidayHours)
}

func TestAPI_CreateHoliday_MissingDates_BadRequest(t *testing.T) {
	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/holidays", token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "start date cannot be null")
	assert.Contains(t, body.Details, "end date cannot be null")
}

func TestAPI_CreateHoliday_InsufficientBalance_BadRequest(t *testing.T) {
	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	// Two business weeks against a 40 hour allowance.
	resp := a.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(16),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "you have only 40 holiday hours")
}

func TestAPI_CreateHoliday_Overlap_Conflict(t *testing.T) {
	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	resp := a.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(4),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
		"start_date": isoDay(3), "end_date": isoDay(5),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decode[api.ErrorResponse](t, resp)
	assert.False(t, body.Retryable, "an overlap does not resolve itself")
}

func TestAPI_CreateHoliday_DuplicatePeriodAcrossUsers_Conflict(t *testing.T) {
	a := newTestAPI(t)
	first := a.workerToken(t, "jane", "jane@example.com")
	second := a.workerToken(t, "john", "john@example.com")

	resp := a.do(t, http.MethodPost, "/api/holidays", first, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(4),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/holidays", second, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(4),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ListHolidays_BoundedByDateWindow(t *testing.T) {
	a := newTestAPI(t)
	token := a.workerToken(t, "jane", "jane@example.com")

	for _, span := range [][2]int{{2, 3}, {10, 11}} {
		resp := a.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
			"start_date": isoDay(span[0]), "end_date": isoDay(span[1]),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := a.do(t, http.MethodGet, "/api/holidays?from="+isoDay(9), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[[]api.HolidayDTO](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, isoDay(10), list[0].StartDate)
}

func TestAPI_RejectHoliday_CreditsBalanceBack(t *testing.T) {
	// GIVEN: A submitted request that debited the balance
	// WHEN: An admin rejects it
	// THEN: The hours come back and the ledger holds both movements

	a := newTestAPI(t)
	worker := a.workerToken(t, "jane", "jane@example.com")
	admin := a.adminToken(t)

	resp := a.do(t, http.MethodPost, "/api/holidays", worker, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(9),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.HolidayDTO](t, resp)

	resp = a.do(t, http.MethodPatch, "/api/holidays", admin, map[string]any{
		"id": created.ID, "status": "rejected",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[api.HolidayDTO](t, resp)
	assert.Equal(t, "rejected", updated.Status)

	resp = a.do(t, http.MethodGet, "/api/users/in/user", worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[api.EmployeeDTO](t, resp)
	assert.Equal(t, int64(40), profile.HolidayHours)

	resp = a.do(t, http.MethodGet, "/api/users/in/ledger", worker, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ledger := decode[api.LedgerResponse](t, resp)
	assert.Len(t, ledger.Entries, 2)
	assert.Equal(t, "0", ledger.Balance)
}

func TestAPI_RejectedRequest_IsFinal(t *testing.T) {
	a := newTestAPI(t)
	worker := a.workerToken(t, "jane", "jane@example.com")
	admin := a.adminToken(t)

	resp := a.do(t, http.MethodPost, "/api/holidays", worker, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(4),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.HolidayDTO](t, resp)

	resp = a.do(t, http.MethodPatch, "/api/holidays", admin, map[string]any{
		"id": created.ID, "status": "rejected",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPatch, "/api/holidays", admin, map[string]any{
		"id": created.ID, "status": "accepted",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ChangeStatus_UnknownStatus_BadRequest(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t)

	resp := a.do(t, http.MethodPatch, "/api/holidays", admin, map[string]any{
		"id": 1, "status": "parked",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_FilterHolidays_ByStatus(t *testing.T) {
	a := newTestAPI(t)
	worker := a.workerToken(t, "jane", "jane@example.com")
	admin := a.adminToken(t)

	resp := a.do(t, http.MethodPost, "/api/holidays", worker, map[string]string{
		"start_date": isoDay(2), "end_date": isoDay(4),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.HolidayDTO](t, resp)

	resp = a.do(t, http.MethodPatch, "/api/holidays", admin, map[string]any{
		"id": created.ID, "status": "accepted",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/api/holidays/filter", admin, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decode[[]api.HolidayDTO](t, resp)
	require.Len(t, accepted, 1)

	resp = a.do(t, http.MethodPost, "/api/holidays/filter", admin, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := decode[[]api.HolidayDTO](t, resp)
	assert.Empty(t, rejected)
}
