package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/security/auth"
	"github.com/yourorg/roomdesk/internal/security/middleware"
	"github.com/yourorg/roomdesk/internal/service"
	"github.com/yourorg/roomdesk/internal/store"
	"github.com/yourorg/roomdesk/internal/store/seed"
	roomsync "github.com/yourorg/roomdesk/internal/sync"
	"github.com/yourorg/roomdesk/pkg/kv"
)

type testEnv struct {
	store    *store.Store
	bus      *bus.Bus
	auth     *service.AuthService
	units    *service.UnitService
	bookings *service.BookingService
	syncer   *roomsync.Syncer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	b := bus.New()
	units := []store.Descriptor{
		{ID: "hq", Name: "Headquarters"},
		{ID: "lab", Name: "Research Lab"},
	}
	st := store.New(kv.NewMemory(), b, units, "hq", nil)
	authz := security.NewAuthorizationService(nil)
	auditLog := audit.NewLogger(nil)
	tokens := auth.NewTokenManager("test-secret", "roomdesk")

	return &testEnv{
		store:    st,
		bus:      b,
		auth:     service.NewAuthService(st, b, nil, tokens, "", nil),
		units:    service.NewUnitService(st, authz, auditLog, nil),
		bookings: service.NewBookingService(st, b, nil, authz, auditLog, nil),
		syncer:   roomsync.New(st, nil, nil),
	}
}

// asUser attaches validated-claims context to a request, standing in for
// the JWT middleware.
func asUser(r *http.Request, unitID, userID string, role domain.Role) *http.Request {
	claims := &auth.Claims{UnitID: unitID, UserID: userID, Role: string(role)}
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey{}, claims)
	ctx = context.WithValue(ctx, middleware.UnitContextKey{}, unitID)
	return r.WithContext(ctx)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := NewLoginHandler(env.auth, nil)
	member, _ := findRole(env.store.UnitData("hq").Users, domain.RoleMember)

	body, _ := json.Marshal(LoginRequest{UnitID: "hq", UserID: member.ID, Password: seed.DefaultMemberPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res service.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Token == "" || res.SessionID == "" {
		t.Fatalf("expected credentials in response, got %+v", res)
	}
	if res.User.PasswordHash != "" {
		t.Fatalf("response leaked password hash")
	}
}

func TestLoginEndpointRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	h := NewLoginHandler(env.auth, nil)
	member, _ := findRole(env.store.UnitData("hq").Users, domain.RoleMember)

	body, _ := json.Marshal(LoginRequest{UnitID: "hq", UserID: member.ID, Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRosterEndpointIsPublic(t *testing.T) {
	env := newTestEnv(t)
	h := NewRosterHandler(env.auth, env.store.CurrentUnitID, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/roster?unit=lab", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res struct {
		UnitID string        `json:"unitId"`
		Users  []domain.User `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.UnitID != "lab" || len(res.Users) != seed.UserCount {
		t.Fatalf("expected %d lab users, got %+v", seed.UserCount, res)
	}
}

func TestBookingsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	h := NewBookingsHandler(env.bookings, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	rec := httptest.NewRecorder()
	h.Collection(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}

func TestBookingsCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	h := NewBookingsHandler(env.bookings, nil)
	admin, _ := findRole(env.store.UnitData("hq").Users, domain.RoleAdmin)

	in := service.BookingInput{
		Date:      "2026-09-21",
		Title:     "All hands",
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	body, _ := json.Marshal(in)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body)), "hq", admin.ID, domain.RoleAdmin)
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/bookings", nil), "hq", admin.ID, domain.RoleAdmin)
	rec = httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res struct {
		Bookings []struct {
			Title    string `json:"title"`
			Day      int    `json:"day"`
			Location string `json:"location"`
		} `json:"bookings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	found := false
	for _, b := range res.Bookings {
		if b.Title == "All hands" {
			found = true
			if b.Day != 21 {
				t.Fatalf("expected derived day 21, got %d", b.Day)
			}
			if b.Location != domain.UnknownLocation {
				t.Fatalf("empty roomId should resolve to %q, got %q", domain.UnknownLocation, b.Location)
			}
		}
	}
	if !found {
		t.Fatalf("created booking missing from list: %+v", res.Bookings)
	}
}

func TestBookingsCreateMemberForbidden(t *testing.T) {
	env := newTestEnv(t)
	h := NewBookingsHandler(env.bookings, nil)

	body, _ := json.Marshal(service.BookingInput{Date: "2026-09-21", Title: "Sneaky"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body)), "hq", "m1", domain.RoleMember)
	rec := httptest.NewRecorder()
	h.Collection(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUnitDataEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := NewUnitsHandler(env.units, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/units/lab", nil), "hq", "a1", domain.RoleAdmin)
	req.SetPathValue("id", "lab")
	rec := httptest.NewRecorder()
	h.Data(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unit data failed: %d %s", rec.Code, rec.Body.String())
	}
	var unit domain.Unit
	if err := json.Unmarshal(rec.Body.Bytes(), &unit); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if unit.ID != "lab" || len(unit.Users) == 0 {
		t.Fatalf("expected seeded lab unit, got %+v", unit.ID)
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/units/ghost", nil), "hq", "a1", domain.RoleAdmin)
	req.SetPathValue("id", "ghost")
	rec = httptest.NewRecorder()
	h.Data(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown unit should be 404, got %d", rec.Code)
	}
}

func TestUnitSwitchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := NewUnitsHandler(env.units, nil)

	body, _ := json.Marshal(map[string]string{"unitId": "lab"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/units/switch", bytes.NewReader(body)), "hq", "m1", domain.RoleMember)
	rec := httptest.NewRecorder()
	h.Switch(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member switch should be 403, got %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]string{"unitId": "lab"})
	req = asUser(httptest.NewRequest(http.MethodPost, "/api/units/switch", bytes.NewReader(body)), "hq", "a1", domain.RoleAdmin)
	rec = httptest.NewRecorder()
	h.Switch(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin switch failed: %d %s", rec.Code, rec.Body.String())
	}
	if env.store.CurrentUnitID() != "lab" {
		t.Fatalf("switch did not move the pointer")
	}
}

func TestSyncEndpointLocalOnly(t *testing.T) {
	env := newTestEnv(t)
	h := NewSyncHandler(env.syncer, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/sync", nil), "hq", "a1", domain.RoleAdmin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res struct {
		Remote bool `json:"remote"`
		Users  int  `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Remote {
		t.Fatalf("nil remote must report remote=false")
	}
	if res.Users != seed.UserCount {
		t.Fatalf("expected local users returned, got %d", res.Users)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz with in-memory substrate should be ready, got %d", rec.Code)
	}
}

func findRole(users []domain.User, role domain.Role) (domain.User, bool) {
	for _, u := range users {
		if u.Role == role {
			return u, true
		}
	}
	return domain.User{}, false
}
