package seed

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/roomdesk/internal/domain"
)

func TestUnitCounts(t *testing.T) {
	u := Unit("hq", "Headquarters")
	if len(u.Users) != UserCount {
		t.Fatalf("expected %d users, got %d", UserCount, len(u.Users))
	}
	admins := 0
	for _, usr := range u.Users {
		if usr.Role == domain.RoleAdmin {
			admins++
		}
		if usr.UnitID != "hq" {
			t.Fatalf("user %s has unit %q, want hq", usr.ID, usr.UnitID)
		}
	}
	if admins != AdminCount {
		t.Fatalf("expected %d admin, got %d", AdminCount, admins)
	}
	if len(u.Rooms) == 0 || len(u.Documents) == 0 {
		t.Fatalf("expected seeded rooms and documents")
	}
	if len(u.Bookings) < 2 || len(u.Bookings) > 3 {
		t.Fatalf("expected 2-3 sample bookings, got %d", len(u.Bookings))
	}
}

func TestBookingReferencesAreConsistent(t *testing.T) {
	u := Unit("north", "North Branch")

	roomIDs := map[string]bool{}
	for _, r := range u.Rooms {
		roomIDs[r.ID] = true
	}
	userIDs := map[string]bool{}
	for _, usr := range u.Users {
		userIDs[usr.ID] = true
	}

	for _, b := range u.Bookings {
		if !roomIDs[b.RoomID] {
			t.Fatalf("booking %s references unknown room %s", b.ID, b.RoomID)
		}
		if len(b.Attendees) == 0 {
			t.Fatalf("booking %s has no attendees", b.ID)
		}
		for _, a := range b.Attendees {
			if !userIDs[a.ID] {
				t.Fatalf("booking %s embeds unknown attendee %s", b.ID, a.ID)
			}
		}
		if b.Day() == 0 {
			t.Fatalf("booking %s has unparseable date %q", b.ID, b.Date)
		}
	}
}

func TestDepartmentsFromFixedList(t *testing.T) {
	u := Unit("lab", "Research Lab")
	allowed := map[string]bool{}
	for _, d := range departments {
		allowed[d] = true
	}
	for _, usr := range u.Users {
		if !allowed[usr.Dept] {
			t.Fatalf("user %s has department %q outside the fixed list", usr.ID, usr.Dept)
		}
	}
}

func TestSeededCredentials(t *testing.T) {
	u := Unit("hq", "Headquarters")
	admin := u.Users[0]
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected first seeded user to be the admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(DefaultAdminPassword)); err != nil {
		t.Fatalf("admin password hash does not match default: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Users[1].PasswordHash), []byte(DefaultMemberPassword)); err != nil {
		t.Fatalf("member password hash does not match default: %v", err)
	}
}
