package service

import (
	"context"
	"testing"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/store/seed"
)

func TestSwitchUnitAdminOnly(t *testing.T) {
	d := newTestDeps()
	svc := NewUnitService(d.store, d.authz, d.audit, nil)

	if err := svc.Switch(context.Background(), memberActor(), "lab"); err == nil {
		t.Fatalf("members must not switch units")
	}
	if got := svc.CurrentID(); got != "hq" {
		t.Fatalf("denied switch must not move the pointer, got %q", got)
	}

	unitSignals := 0
	unsubscribe := d.bus.Subscribe(bus.SignalUnitChanged, func() { unitSignals++ })
	defer unsubscribe()

	if err := svc.Switch(context.Background(), adminActor(), "lab"); err != nil {
		t.Fatalf("admin switch failed: %v", err)
	}
	if got := svc.CurrentID(); got != "lab" {
		t.Fatalf("expected current unit lab, got %q", got)
	}
	if unitSignals != 1 {
		t.Fatalf("expected one unit_changed signal, got %d", unitSignals)
	}
}

func TestSwitchUnitUnknownID(t *testing.T) {
	d := newTestDeps()
	svc := NewUnitService(d.store, d.authz, d.audit, nil)
	if err := svc.Switch(context.Background(), adminActor(), "nowhere"); err == nil {
		t.Fatalf("unknown unit must be rejected")
	}
}

func TestUnitDataSeedsLazily(t *testing.T) {
	d := newTestDeps()
	svc := NewUnitService(d.store, d.authz, d.audit, nil)

	unit := svc.Data("lab")
	if unit == nil || len(unit.Users) != seed.UserCount {
		t.Fatalf("expected %d seeded users, got %+v", seed.UserCount, unit)
	}
	if len(svc.All()) != 2 {
		t.Fatalf("expected 2 configured units, got %d", len(svc.All()))
	}
}
