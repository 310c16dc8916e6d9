package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.log = append(*s.log, "start:"+s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	*s.log = append(*s.log, "stop:"+s.name)
	return s.stopErr
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	m := NewManager(nil)
	if err := m.Register(NoopService{ServiceName: "auth"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "auth"}); err == nil {
		t.Fatalf("duplicate name must be rejected")
	}
}

func TestStartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(nil)
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, log: &log}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("events = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestStartFailureUnwindsStartedServices(t *testing.T) {
	var log []string
	m := NewManager(nil)
	boom := errors.New("boom")
	services := []*recordingService{
		{name: "a", log: &log},
		{name: "b", log: &log, startErr: boom},
		{name: "c", log: &log},
	}
	for _, svc := range services {
		if err := m.Register(svc); err != nil {
			t.Fatalf("register %s: %v", svc.name, err)
		}
	}

	err := m.Start(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("start err = %v", err)
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("events = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestStopReportsFirstError(t *testing.T) {
	var log []string
	m := NewManager(nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	services := []*recordingService{
		{name: "a", log: &log, stopErr: errA},
		{name: "b", log: &log, stopErr: errB},
	}
	for _, svc := range services {
		if err := m.Register(svc); err != nil {
			t.Fatalf("register %s: %v", svc.name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Stop runs in reverse order, so b's failure is seen first.
	if err := m.Stop(ctx); !errors.Is(err, errB) {
		t.Fatalf("stop err = %v, want %v", err, errB)
	}
	if got := log[len(log)-1]; got != "stop:a" {
		t.Fatalf("last event = %q, both services must still be stopped", got)
	}
}
