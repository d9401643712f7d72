package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/hardware"
	"heating_controller/internal/models"
	"heating_controller/internal/publisher"
)

var t0 = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func seedRecent(store *memStore, key string, now time.Time, values ...float64) {
	for i, v := range values {
		store.seedReading(key, v, now.Add(-time.Duration(i+1)*time.Minute))
	}
}

func TestUpdateValves_ColdRoomOpensValve(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 18, 18.5, 19)
	valve := hardware.NewFakeRelay(false)
	pub := publisher.NewFake()

	svc := newTestValveService(
		[]config.Room{{Key: "office", Name: "Office", Area: 10, Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, pub)

	if err := svc.UpdateValves(context.Background()); err != nil {
		t.Fatalf("UpdateValves() error = %v", err)
	}

	if len(valve.Writes) != 1 || !valve.Writes[0] {
		t.Fatalf("relay writes = %v, want [true]", valve.Writes)
	}
	st, ok := store.latestState("office")
	if !ok || !st.State || !st.Timestamp.Equal(t0) {
		t.Fatalf("latest state = %+v (ok=%v), want ON at %v", st, ok, t0)
	}
	if store.eventCount(models.EventValveChange) != 1 {
		t.Fatalf("expected one VALVE_CHANGE event")
	}
	if pub.StateCount() != 1 || !pub.States[0].State {
		t.Fatalf("published states = %+v", pub.States)
	}
}

func TestUpdateValves_WarmRoomClosesValve(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 21, 21, 21)
	valve := hardware.NewFakeRelay(true)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	_ = svc.UpdateValves(context.Background())

	if valve.State() {
		t.Fatalf("valve must be OFF")
	}
	st, _ := store.latestState("office")
	if st.State {
		t.Fatalf("stored state must be OFF")
	}
}

func TestUpdateValves_AverageEqualToSetpointIsOff(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 19.5, 20, 20.5)
	valve := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	_ = svc.UpdateValves(context.Background())

	if valve.WriteCount() != 0 || store.stateAppends != 0 {
		t.Fatalf("tie must keep the valve OFF without writes: writes=%d appends=%d", valve.WriteCount(), store.stateAppends)
	}
}

func TestUpdateValves_TooFewSamplesSkips(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 10, 10)
	// Older than the lookback window; must not be counted.
	store.seedReading("office", 10, t0.Add(-11*time.Minute))
	valve := hardware.NewFakeRelay(false)
	valve.ReadError = errors.New("relay must not be read")

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	_ = svc.UpdateValves(context.Background())

	if valve.WriteCount() != 0 || store.stateAppends != 0 {
		t.Fatalf("room with two samples must be skipped")
	}
}

func TestUpdateValves_NoScheduleWindowSkips(t *testing.T) {
	clk := newClock(t0) // 08:00 UTC
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 10, 10, 10)
	valve := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: []config.ScheduleWindow{{StartHour: 18, EndHour: 22, Temperature: 21}}}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	_ = svc.UpdateValves(context.Background())

	if valve.WriteCount() != 0 || store.stateAppends != 0 {
		t.Fatalf("room outside every window must be skipped")
	}
}

func TestUpdateValves_UsesLocalHour(t *testing.T) {
	clk := newClock(t0) // 08:00 UTC is 10:00 at UTC+2
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 10, 10, 10)
	valve := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: []config.ScheduleWindow{{StartHour: 10, EndHour: 11, Temperature: 21}}}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})
	svc.loc = time.FixedZone("UTC+2", 2*3600)

	_ = svc.UpdateValves(context.Background())

	if !valve.State() {
		t.Fatalf("window 10-11 local must apply at 08:00 UTC in UTC+2")
	}
}

func TestUpdateValves_IsIdempotent(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 18, 18.5, 19)
	valve := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	_ = svc.UpdateValves(context.Background())
	writes, appends, events := valve.WriteCount(), store.stateAppends, store.eventCount(models.EventValveChange)

	_ = svc.UpdateValves(context.Background())

	if valve.WriteCount() != writes || store.stateAppends != appends || store.eventCount(models.EventValveChange) != events {
		t.Fatalf("second run must not write: writes %d->%d appends %d->%d", writes, valve.WriteCount(), appends, store.stateAppends)
	}
}

func TestUpdateValves_FailingRoomDoesNotStopOthers(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	for _, k := range []string{"a", "b", "c"} {
		seedRecent(store, k, t0, 15, 15, 15)
	}
	broken := hardware.NewFakeRelay(false)
	broken.ReadError = errors.New("gpio gone")
	stuck := hardware.NewFakeRelay(false)
	stuck.SetError = errors.New("write failed")
	ok := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{
			{Key: "a", Schedule: allDay(20)},
			{Key: "b", Schedule: allDay(20)},
			{Key: "c", Schedule: allDay(20)},
			{Key: "no_relay", Schedule: allDay(20)},
		},
		map[string]hardware.Relay{"a": broken, "b": stuck, "c": ok}, store, clk, publisher.Nop{})

	if err := svc.UpdateValves(context.Background()); err != nil {
		t.Fatalf("UpdateValves() must not fail on per-room errors: %v", err)
	}

	if !ok.State() {
		t.Fatalf("room c must be switched ON")
	}
	if _, found := store.latestState("b"); found {
		t.Fatalf("failed relay write must leave the store untouched")
	}
	if _, found := store.latestState("a"); found {
		t.Fatalf("failed relay read must leave the store untouched")
	}
}

func TestUpdateValves_PublishFailureIsIgnored(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	seedRecent(store, "office", t0, 15, 15, 15)
	valve := hardware.NewFakeRelay(false)
	pub := publisher.NewFake()
	pub.PublishError = errors.New("broker down")
	store.eventErr = errors.New("events table locked")

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, pub)

	_ = svc.UpdateValves(context.Background())

	if st, ok := store.latestState("office"); !ok || !st.State {
		t.Fatalf("state must be stored despite publish and event failures")
	}
}

func TestUpdateValves_StoreReadErrorSkipsRoom(t *testing.T) {
	clk := newClock(t0)
	store := newMemStore(clk.Now)
	store.readErr = errors.New("db locked")
	valve := hardware.NewFakeRelay(false)

	svc := newTestValveService(
		[]config.Room{{Key: "office", Schedule: allDay(20)}},
		map[string]hardware.Relay{"office": valve}, store, clk, publisher.Nop{})

	if err := svc.UpdateValves(context.Background()); err != nil {
		t.Fatalf("UpdateValves() error = %v", err)
	}
	if valve.WriteCount() != 0 {
		t.Fatalf("no write expected")
	}
}
