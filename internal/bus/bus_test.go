package bus

import "testing"

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	got1, got2 := 0, 0
	b.Subscribe(SignalDataChanged, func() { got1++ })
	b.Subscribe(SignalDataChanged, func() { got2++ })

	b.Publish(SignalDataChanged)
	if got1 != 1 || got2 != 1 {
		t.Fatalf("expected both subscribers notified once, got %d and %d", got1, got2)
	}
}

func TestSignalsAreIndependent(t *testing.T) {
	b := New()
	auth, data := 0, 0
	b.Subscribe(SignalAuthChanged, func() { auth++ })
	b.Subscribe(SignalDataChanged, func() { data++ })

	b.Publish(SignalUnitChanged)
	b.Publish(SignalAuthChanged)
	if auth != 1 {
		t.Fatalf("expected one auth notification, got %d", auth)
	}
	if data != 0 {
		t.Fatalf("expected no data notifications, got %d", data)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	got := 0
	unsub := b.Subscribe(SignalUnitChanged, func() { got++ })
	b.Publish(SignalUnitChanged)
	unsub()
	unsub() // second call is a no-op
	b.Publish(SignalUnitChanged)
	if got != 1 {
		t.Fatalf("expected exactly one notification, got %d", got)
	}
}

func TestHandlerMayPublish(t *testing.T) {
	b := New()
	got := 0
	b.Subscribe(SignalDataChanged, func() { got++ })
	b.Subscribe(SignalUnitChanged, func() { b.Publish(SignalDataChanged) })
	b.Publish(SignalUnitChanged)
	if got != 1 {
		t.Fatalf("expected nested publish to be delivered, got %d", got)
	}
}
