// Package store implements the per-unit local data layer: one serialized
// blob per unit in a key-value substrate, a current-unit pointer, and a
// whole-cache TTL sweep. The blob is the unit of atomicity; every mutation is
// read-blob, replace-one-array, write-blob under a single mutex.
package store

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/store/seed"
	"github.com/yourorg/roomdesk/pkg/kv"
)

// Storage keys. These are part of the persisted surface and must stay
// stable across releases.
const (
	unitKeyPrefix   = "unit_data:"
	currentUnitKey  = "current_unit"
	lastCleanupKey  = "last_cleanup"
	authUserKey     = "auth_user"
	sessionTokenKey = "session_token"
)

// CleanupMaxAge is the whole-cache TTL. Once the last cleanup is older than
// this, every unit blob and the current-unit pointer are wiped so the next
// read regenerates from seed.
const CleanupMaxAge = 7 * 24 * time.Hour

// Descriptor identifies one configured tenant.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store owns local unit persistence. Reads never fail: a missing or corrupt
// blob is regenerated from seed and the error is logged, not propagated.
type Store struct {
	kv          kv.Store
	bus         *bus.Bus
	logger      *slog.Logger
	units       []Descriptor
	defaultUnit string

	mu sync.Mutex
}

// New creates a store over the given substrate. defaultUnit is used whenever
// the current-unit pointer is unset.
func New(kvStore kv.Store, b *bus.Bus, units []Descriptor, defaultUnit string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:          kvStore,
		bus:         b,
		logger:      logger,
		units:       units,
		defaultUnit: defaultUnit,
	}
}

// AllUnits returns the configured tenant descriptors.
func (s *Store) AllUnits() []Descriptor {
	out := make([]Descriptor, len(s.units))
	copy(out, s.units)
	return out
}

func (s *Store) unitName(id string) string {
	for _, d := range s.units {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}

// UnitData returns the persisted blob for a unit, regenerating it from seed
// if absent or corrupt. It always returns a well-formed unit.
func (s *Store) UnitData(unitID string) *domain.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(unitID)
}

// CurrentUnitData returns the blob for the current unit.
func (s *Store) CurrentUnitData() *domain.Unit {
	return s.UnitData(s.CurrentUnitID())
}

func (s *Store) loadLocked(unitID string) *domain.Unit {
	raw, ok, err := s.kv.Get(unitKeyPrefix + unitID)
	if err != nil {
		s.logger.Warn("unit blob read failed, regenerating",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		ok = false
	}
	if ok {
		u := &domain.Unit{}
		if err := json.Unmarshal([]byte(raw), u); err != nil {
			s.logger.Warn("discarding corrupt unit blob",
				slog.String("unit_id", unitID),
				slog.String("error", err.Error()),
			)
		} else {
			u.Normalize()
			return u
		}
	}

	u := seed.Unit(unitID, s.unitName(unitID))
	s.persistLocked(u)
	s.logger.Info("seeded unit", slog.String("unit_id", unitID), slog.Int("users", len(u.Users)))
	return u
}

func (s *Store) persistLocked(u *domain.Unit) {
	data, err := json.Marshal(u)
	if err != nil {
		s.logger.Error("failed to marshal unit blob", slog.String("unit_id", u.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.kv.Set(unitKeyPrefix+u.ID, string(data)); err != nil {
		s.logger.Error("failed to persist unit blob", slog.String("unit_id", u.ID), slog.String("error", err.Error()))
	}
}

// mutate applies one array replacement to a unit blob. The read and the
// write happen under the same lock so rapid successive mutations cannot
// race over a stale blob.
func (s *Store) mutate(unitID string, fn func(*domain.Unit)) {
	s.mu.Lock()
	u := s.loadLocked(unitID)
	fn(u)
	u.Normalize()
	s.persistLocked(u)
	s.mu.Unlock()
	s.bus.Publish(bus.SignalDataChanged)
}

// SaveUnitUsers replaces a unit's user array and notifies observers. Like
// all mutators it is fire-and-forget with respect to remote sync.
func (s *Store) SaveUnitUsers(unitID string, users []domain.User) {
	s.mutate(unitID, func(u *domain.Unit) { u.Users = users })
}

// SaveUnitRooms replaces a unit's room array.
func (s *Store) SaveUnitRooms(unitID string, rooms []domain.Room) {
	s.mutate(unitID, func(u *domain.Unit) { u.Rooms = rooms })
}

// SaveUnitBookings replaces a unit's booking array.
func (s *Store) SaveUnitBookings(unitID string, bookings []domain.Booking) {
	s.mutate(unitID, func(u *domain.Unit) { u.Bookings = bookings })
}

// SaveUnitDocuments replaces a unit's document array.
func (s *Store) SaveUnitDocuments(unitID string, documents []domain.Document) {
	s.mutate(unitID, func(u *domain.Unit) { u.Documents = documents })
}

// UpdateUnitUsers applies fn to the unit's users inside the blob lock, so
// the read and the write cannot interleave with another mutation.
func (s *Store) UpdateUnitUsers(unitID string, fn func([]domain.User) []domain.User) {
	s.mutate(unitID, func(u *domain.Unit) { u.Users = fn(u.Users) })
}

// UpdateUnitBookings applies fn to the unit's bookings inside the blob lock.
func (s *Store) UpdateUnitBookings(unitID string, fn func([]domain.Booking) []domain.Booking) {
	s.mutate(unitID, func(u *domain.Unit) { u.Bookings = fn(u.Bookings) })
}

// UpdateUnitDocuments applies fn to the unit's documents inside the blob lock.
func (s *Store) UpdateUnitDocuments(unitID string, fn func([]domain.Document) []domain.Document) {
	s.mutate(unitID, func(u *domain.Unit) { u.Documents = fn(u.Documents) })
}

// SaveUsers replaces the current unit's user array.
func (s *Store) SaveUsers(users []domain.User) { s.SaveUnitUsers(s.CurrentUnitID(), users) }

// SaveRooms replaces the current unit's room array.
func (s *Store) SaveRooms(rooms []domain.Room) { s.SaveUnitRooms(s.CurrentUnitID(), rooms) }

// SaveBookings replaces the current unit's booking array.
func (s *Store) SaveBookings(bookings []domain.Booking) {
	s.SaveUnitBookings(s.CurrentUnitID(), bookings)
}

// SaveDocuments replaces the current unit's document array.
func (s *Store) SaveDocuments(documents []domain.Document) {
	s.SaveUnitDocuments(s.CurrentUnitID(), documents)
}

// CurrentUnitID returns the current-unit pointer, falling back to the
// configured default when unset.
func (s *Store) CurrentUnitID() string {
	id, ok, err := s.kv.Get(currentUnitKey)
	if err != nil {
		s.logger.Warn("current unit read failed", slog.String("error", err.Error()))
		return s.defaultUnit
	}
	if !ok || id == "" {
		return s.defaultUnit
	}
	return id
}

// SetCurrentUnitID persists the pointer and signals the unit switch.
func (s *Store) SetCurrentUnitID(id string) {
	if err := s.kv.Set(currentUnitKey, id); err != nil {
		s.logger.Error("failed to persist current unit", slog.String("error", err.Error()))
		return
	}
	s.bus.Publish(bus.SignalUnitChanged)
}

// InitData runs the TTL sweep and then makes sure every configured unit has
// a blob. Calling it twice is a no-op for already-seeded units. It reports
// whether the sweep wiped the cache.
func (s *Store) InitData() bool {
	wiped := s.CleanupExpired()
	for _, d := range s.units {
		s.UnitData(d.ID)
	}
	return wiped
}

// CleanupExpired wipes every unit blob and the current-unit pointer once the
// last cleanup is older than CleanupMaxAge, then resets the timestamp. The
// first call on a fresh substrate just records the timestamp.
func (s *Store) CleanupExpired() bool {
	s.mu.Lock()
	now := time.Now()

	raw, ok, err := s.kv.Get(lastCleanupKey)
	if err != nil {
		s.logger.Warn("last cleanup read failed", slog.String("error", err.Error()))
		ok = false
	}
	last := int64(0)
	if ok {
		if last, err = strconv.ParseInt(raw, 10, 64); err != nil {
			s.logger.Warn("discarding corrupt cleanup timestamp", slog.String("value", raw))
			last = 0
		}
	}
	if last == 0 {
		s.setCleanupStampLocked(now)
		s.mu.Unlock()
		return false
	}
	if now.Sub(time.Unix(last, 0)) < CleanupMaxAge {
		s.mu.Unlock()
		return false
	}

	keys, err := s.kv.Keys(unitKeyPrefix)
	if err != nil {
		s.logger.Error("cache sweep failed to list unit keys", slog.String("error", err.Error()))
		s.mu.Unlock()
		return false
	}
	for _, k := range keys {
		if err := s.kv.Delete(k); err != nil {
			s.logger.Error("cache sweep failed to delete key", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
	if err := s.kv.Delete(currentUnitKey); err != nil {
		s.logger.Error("cache sweep failed to clear current unit", slog.String("error", err.Error()))
	}
	s.setCleanupStampLocked(now)
	s.mu.Unlock()

	s.logger.Info("expired unit cache wiped", slog.Int("units", len(keys)))
	s.bus.Publish(bus.SignalUnitChanged)
	s.bus.Publish(bus.SignalDataChanged)
	return true
}

func (s *Store) setCleanupStampLocked(t time.Time) {
	if err := s.kv.Set(lastCleanupKey, strconv.FormatInt(t.Unix(), 10)); err != nil {
		s.logger.Error("failed to persist cleanup timestamp", slog.String("error", err.Error()))
	}
}

// CachedUser returns the locally cached authenticated identity, if any.
// A corrupt cache entry is treated as logged out.
func (s *Store) CachedUser() (domain.User, bool) {
	raw, ok, err := s.kv.Get(authUserKey)
	if err != nil || !ok {
		return domain.User{}, false
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.logger.Warn("discarding corrupt cached user", slog.String("error", err.Error()))
		s.kv.Delete(authUserKey)
		return domain.User{}, false
	}
	return u, true
}

// SetCachedUser persists the authenticated identity.
func (s *Store) SetCachedUser(u domain.User) {
	data, err := json.Marshal(u)
	if err != nil {
		s.logger.Error("failed to marshal cached user", slog.String("error", err.Error()))
		return
	}
	if err := s.kv.Set(authUserKey, string(data)); err != nil {
		s.logger.Error("failed to persist cached user", slog.String("error", err.Error()))
	}
}

// SessionToken returns the locally cached session token, if any.
func (s *Store) SessionToken() (string, bool) {
	tok, ok, err := s.kv.Get(sessionTokenKey)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, ok
}

// SetSessionToken persists the session token.
func (s *Store) SetSessionToken(token string) {
	if err := s.kv.Set(sessionTokenKey, token); err != nil {
		s.logger.Error("failed to persist session token", slog.String("error", err.Error()))
	}
}

// ClearSession removes the cached identity and token.
func (s *Store) ClearSession() {
	s.kv.Delete(authUserKey)
	s.kv.Delete(sessionTokenKey)
}
