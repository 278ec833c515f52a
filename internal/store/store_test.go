package store

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/store/seed"
	"github.com/yourorg/roomdesk/pkg/kv"
)

func testUnits() []Descriptor {
	return []Descriptor{
		{ID: "hq", Name: "Headquarters"},
		{ID: "north", Name: "North Branch"},
		{ID: "lab", Name: "Research Lab"},
	}
}

func newTestStore() (*Store, *kv.Memory, *bus.Bus) {
	mem := kv.NewMemory()
	b := bus.New()
	return New(mem, b, testUnits(), "hq", nil), mem, b
}

func TestUnitDataSeedsWhenAbsent(t *testing.T) {
	s, _, _ := newTestStore()
	for _, d := range testUnits() {
		u := s.UnitData(d.ID)
		if u == nil {
			t.Fatalf("expected unit %s", d.ID)
		}
		if u.Users == nil || u.Rooms == nil || u.Bookings == nil || u.Documents == nil {
			t.Fatalf("unit %s has nil arrays", d.ID)
		}
		if u.Name != d.Name {
			t.Fatalf("unit %s name = %q, want %q", d.ID, u.Name, d.Name)
		}
	}
}

func TestUnitDataRegeneratesCorruptBlob(t *testing.T) {
	s, mem, _ := newTestStore()
	mem.Set("unit_data:hq", "{not json")

	u := s.UnitData("hq")
	if len(u.Users) != seed.UserCount {
		t.Fatalf("expected reseeded unit with %d users, got %d", seed.UserCount, len(u.Users))
	}
	// The regenerated blob must be persisted so the next read is stable.
	again := s.UnitData("hq")
	if again.Users[0].ID != u.Users[0].ID {
		t.Fatalf("expected regenerated blob to be persisted")
	}
}

func TestInitDataIsIdempotent(t *testing.T) {
	s, _, _ := newTestStore()
	s.InitData()
	first := s.UnitData("hq")
	s.InitData()
	second := s.UnitData("hq")
	if len(second.Users) != len(first.Users) {
		t.Fatalf("init duplicated seeded rows: %d vs %d", len(second.Users), len(first.Users))
	}
	if second.Users[0].ID != first.Users[0].ID {
		t.Fatalf("init replaced an existing blob")
	}
}

func TestSaveUsersRoundTrip(t *testing.T) {
	s, _, _ := newTestStore()
	users := []domain.User{
		{ID: "u1", Name: "Ada", Role: domain.RoleAdmin, UnitID: "hq", Status: domain.UserStatusActive},
		{ID: "u2", Name: "Lin", Role: domain.RoleMember, UnitID: "hq", Status: domain.UserStatusOffline},
	}
	s.SaveUsers(users)
	got := s.CurrentUnitData().Users
	if !reflect.DeepEqual(got, users) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, users)
	}
}

func TestCurrentUnitDefaultsAndSwitch(t *testing.T) {
	s, _, b := newTestStore()
	if got := s.CurrentUnitID(); got != "hq" {
		t.Fatalf("expected default unit hq, got %s", got)
	}
	switched := 0
	b.Subscribe(bus.SignalUnitChanged, func() { switched++ })
	s.SetCurrentUnitID("north")
	if got := s.CurrentUnitID(); got != "north" {
		t.Fatalf("expected north after switch, got %s", got)
	}
	if switched != 1 {
		t.Fatalf("expected one unit_changed signal, got %d", switched)
	}
}

func TestMutatorsSignalDataChanged(t *testing.T) {
	s, _, b := newTestStore()
	changes := 0
	b.Subscribe(bus.SignalDataChanged, func() { changes++ })
	s.SaveRooms([]domain.Room{{ID: "r1", Name: "Annex"}})
	s.SaveBookings([]domain.Booking{})
	if changes != 2 {
		t.Fatalf("expected 2 data_changed signals, got %d", changes)
	}
}

func TestCleanupExpiredWipesCache(t *testing.T) {
	s, mem, _ := newTestStore()
	s.InitData()
	s.SetCurrentUnitID("lab")

	old := time.Now().Add(-CleanupMaxAge - time.Hour)
	mem.Set("last_cleanup", strconv.FormatInt(old.Unix(), 10))

	if !s.CleanupExpired() {
		t.Fatalf("expected expired cache to be wiped")
	}
	keys, _ := mem.Keys("unit_data:")
	if len(keys) != 0 {
		t.Fatalf("expected unit keys cleared, got %v", keys)
	}
	if _, ok, _ := mem.Get("current_unit"); ok {
		t.Fatalf("expected current-unit pointer cleared")
	}
	raw, ok, _ := mem.Get("last_cleanup")
	if !ok {
		t.Fatalf("expected cleanup timestamp reset")
	}
	ts, _ := strconv.ParseInt(raw, 10, 64)
	if time.Since(time.Unix(ts, 0)) > time.Minute {
		t.Fatalf("expected fresh cleanup timestamp, got %d", ts)
	}
}

func TestCleanupFreshCacheIsNoop(t *testing.T) {
	s, mem, _ := newTestStore()
	s.InitData()
	if s.CleanupExpired() {
		t.Fatalf("expected no wipe right after init")
	}
	keys, _ := mem.Keys("unit_data:")
	if len(keys) != len(testUnits()) {
		t.Fatalf("expected %d unit blobs intact, got %d", len(testUnits()), len(keys))
	}
}

func TestFreshEnvironmentEndToEnd(t *testing.T) {
	s, _, _ := newTestStore()
	s.InitData()

	units := s.AllUnits()
	if len(units) != 3 {
		t.Fatalf("expected 3 configured tenants, got %d", len(units))
	}
	if got := s.CurrentUnitID(); got != "hq" {
		t.Fatalf("expected default tenant hq, got %s", got)
	}
	if got := len(s.CurrentUnitData().Users); got != seed.UserCount {
		t.Fatalf("expected %d seeded users, got %d", seed.UserCount, got)
	}
}

func TestSessionCacheRoundTrip(t *testing.T) {
	s, _, _ := newTestStore()
	if _, ok := s.CachedUser(); ok {
		t.Fatalf("expected no cached user on fresh store")
	}
	s.SetCachedUser(domain.User{ID: "u1", UnitID: "hq"})
	s.SetSessionToken("tok-1")
	u, ok := s.CachedUser()
	if !ok || u.ID != "u1" {
		t.Fatalf("expected cached user u1, got %+v ok=%v", u, ok)
	}
	tok, ok := s.SessionToken()
	if !ok || tok != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", tok)
	}
	s.ClearSession()
	if _, ok := s.CachedUser(); ok {
		t.Fatalf("expected cached user cleared")
	}
	if _, ok := s.SessionToken(); ok {
		t.Fatalf("expected session token cleared")
	}
}
