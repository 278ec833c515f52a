// Package seed fabricates plausible mock content for a brand-new unit. The
// shape is deterministic (fixed counts, fixed rooms and documents); the
// values are not (random ids, colors, names).
package seed

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/roomdesk/internal/domain"
)

// Fixed seed counts. Every fresh unit gets exactly one admin plus
// MemberCount generated members.
const (
	AdminCount  = 1
	MemberCount = 25
	UserCount   = AdminCount + MemberCount
)

// Demo credentials. Real authentication belongs to an identity provider;
// these exist so the back-office is usable out of the box.
const (
	DefaultAdminPassword  = "admin123"
	DefaultMemberPassword = "meeting42"
)

var departments = []string{"Engineering", "Product", "Sales", "Marketing", "Operations", "Finance"}

var avatarColors = []string{"#4F46E5", "#0891B2", "#059669", "#D97706", "#DC2626", "#7C3AED", "#DB2777"}

var memberNames = []string{
	"Alex Rivera", "Jordan Chen", "Sam Patel", "Casey Kim", "Morgan Lee",
	"Taylor Brooks", "Riley Novak", "Avery Costa", "Quinn Harper", "Dana Volkov",
	"Jamie Laurent", "Robin Sato", "Drew Mancini", "Skyler Adeyemi", "Cameron Ives",
	"Reese Lindqvist", "Parker Osei", "Emerson Vidal", "Rowan Keller", "Sasha Moreno",
	"Finley Park", "Harper Lund", "Micah Dorsey", "Noel Ferreira", "Tatum Walsh",
}

// Password hashing is the expensive part of seeding, and every unit uses the
// same two demo credentials, so hash them once per process.
var (
	hashOnce   sync.Once
	adminHash  string
	memberHash string
)

func credentialHashes() (string, string) {
	hashOnce.Do(func() {
		a, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("seed: hash admin password: %v", err))
		}
		m, err := bcrypt.GenerateFromPassword([]byte(DefaultMemberPassword), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("seed: hash member password: %v", err))
		}
		adminHash, memberHash = string(a), string(m)
	})
	return adminHash, memberHash
}

// Unit builds a complete mock unit. It must only be called when no persisted
// blob exists for the unit id; the store enforces that. All references inside
// the generated unit are internally consistent: bookings point at generated
// rooms and embed generated users.
func Unit(id, name string) *domain.Unit {
	aHash, mHash := credentialHashes()

	users := make([]domain.User, 0, UserCount)
	users = append(users, domain.User{
		ID:           "u-" + uuid.NewString(),
		Name:         "Unit Administrator",
		Role:         domain.RoleAdmin,
		Dept:         "Operations",
		Status:       domain.UserStatusActive,
		AvatarColor:  avatarColors[0],
		Email:        fmt.Sprintf("admin@%s.roomdesk.local", id),
		UnitID:       id,
		PasswordHash: aHash,
		SyncState:    domain.SyncStateSynced,
	})
	for i := 0; i < MemberCount; i++ {
		status := domain.UserStatusActive
		if rand.Intn(4) == 0 {
			status = domain.UserStatusOffline
		}
		users = append(users, domain.User{
			ID:           "u-" + uuid.NewString(),
			Name:         memberNames[i%len(memberNames)],
			Role:         domain.RoleMember,
			Dept:         departments[i%len(departments)],
			Status:       status,
			AvatarColor:  avatarColors[rand.Intn(len(avatarColors))],
			Email:        fmt.Sprintf("member%02d@%s.roomdesk.local", i+1, id),
			UnitID:       id,
			PasswordHash: mHash,
			SyncState:    domain.SyncStateSynced,
		})
	}

	rooms := []domain.Room{
		{ID: "r-" + uuid.NewString(), Name: "Boardroom", Capacity: 14, Location: "Floor 3, East Wing", Amenities: []string{"projector", "whiteboard", "video"}, Status: domain.RoomStatusActive},
		{ID: "r-" + uuid.NewString(), Name: "Huddle A", Capacity: 4, Location: "Floor 1, North", Amenities: []string{"screen"}, Status: domain.RoomStatusActive},
		{ID: "r-" + uuid.NewString(), Name: "Huddle B", Capacity: 4, Location: "Floor 1, North", Amenities: []string{"screen", "whiteboard"}, Status: domain.RoomStatusActive},
		{ID: "r-" + uuid.NewString(), Name: "Training Hall", Capacity: 30, Location: "Floor 2, South", Amenities: []string{"projector", "audio"}, Status: domain.RoomStatusActive},
		{ID: "r-" + uuid.NewString(), Name: "Quiet Cabinet", Capacity: 2, Location: "Floor 2, West", Amenities: []string{}, Status: domain.RoomStatusMaintenance},
	}

	today := time.Now()
	docDate := today.Format("Jan 2, 2006")
	documents := []domain.Document{
		{ID: "d-" + uuid.NewString(), Name: "Meeting room policy", Date: docDate, Size: "245 KB", Type: "pdf", Status: domain.DocStatusApproved, Category: "Policies", SyncState: domain.SyncStateSynced},
		{ID: "d-" + uuid.NewString(), Name: "Q3 planning agenda", Date: docDate, Size: "98 KB", Type: "docx", Status: domain.DocStatusApproved, Category: "Agendas", SyncState: domain.SyncStateSynced},
		{ID: "d-" + uuid.NewString(), Name: "Visitor guidelines", Date: docDate, Size: "1.1 MB", Type: "pdf", Status: domain.DocStatusDraft, Category: "Policies", SyncState: domain.SyncStateSynced},
		{ID: "d-" + uuid.NewString(), Name: "Equipment checklist", Date: docDate, Size: "56 KB", Type: "xlsx", Status: domain.DocStatusApproved, Category: "Facilities", SyncState: domain.SyncStateSynced},
	}

	bookings := []domain.Booking{
		{
			ID:        "b-" + uuid.NewString(),
			Date:      today.Format(domain.DateLayout),
			Title:     "Weekly planning",
			StartTime: "09:00",
			EndTime:   "10:00",
			RoomID:    rooms[0].ID,
			Type:      domain.BookingTypeInternal,
			Attendees: []domain.User{users[0].Sanitized(), users[1].Sanitized(), users[2].Sanitized()},
			Documents: []domain.DocumentRef{documents[1].Ref()},
			SyncState: domain.SyncStateSynced,
		},
		{
			ID:        "b-" + uuid.NewString(),
			Date:      today.AddDate(0, 0, 1).Format(domain.DateLayout),
			Title:     "Customer review",
			StartTime: "14:00",
			EndTime:   "15:30",
			RoomID:    rooms[1].ID,
			Type:      domain.BookingTypeExternal,
			Attendees: []domain.User{users[3].Sanitized(), users[4].Sanitized()},
			Documents: []domain.DocumentRef{},
			SyncState: domain.SyncStateSynced,
		},
		{
			ID:        "b-" + uuid.NewString(),
			Date:      today.AddDate(0, 0, 3).Format(domain.DateLayout),
			Title:     "Onboarding session",
			StartTime: "11:00",
			EndTime:   "12:00",
			RoomID:    rooms[3].ID,
			Type:      domain.BookingTypeTraining,
			Attendees: []domain.User{users[0].Sanitized(), users[5].Sanitized(), users[6].Sanitized(), users[7].Sanitized()},
			Documents: []domain.DocumentRef{documents[0].Ref()},
			SyncState: domain.SyncStateSynced,
		},
	}

	return &domain.Unit{
		ID:        id,
		Name:      name,
		Users:     users,
		Rooms:     rooms,
		Bookings:  bookings,
		Documents: documents,
	}
}
