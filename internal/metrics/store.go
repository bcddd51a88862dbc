package metrics

import (
	"context"

	"github.com/roach88/classcal/internal/calendar"
)

// InstrumentedStore wraps a calendar.EventStore and counts every operation.
type InstrumentedStore struct {
	next    calendar.EventStore
	backend string
	m       *Metrics
}

// InstrumentStore decorates next so each call is recorded under backend.
func InstrumentStore(next calendar.EventStore, backend string, m *Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, m: m}
}

func (s *InstrumentedStore) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = string(calendar.CodeOf(err))
	}
	s.m.ObserveStoreOp(s.backend, op, result)
}

func (s *InstrumentedStore) ListAll(ctx context.Context) ([]calendar.Event, error) {
	events, err := s.next.ListAll(ctx)
	s.observe("list_all", err)
	if err == nil {
		s.m.SetEventCount(s.backend, len(events))
	}
	return events, err
}

func (s *InstrumentedStore) ListByDate(ctx context.Context, date string) ([]calendar.Event, error) {
	events, err := s.next.ListByDate(ctx, date)
	s.observe("list_by_date", err)
	return events, err
}

func (s *InstrumentedStore) Create(ctx context.Context, in calendar.Input) (calendar.Event, error) {
	e, err := s.next.Create(ctx, in)
	s.observe("create", err)
	return e, err
}

func (s *InstrumentedStore) Update(ctx context.Context, id int64, p calendar.Patch) (calendar.Event, error) {
	e, err := s.next.Update(ctx, id, p)
	s.observe("update", err)
	return e, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id int64) error {
	err := s.next.Delete(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *InstrumentedStore) HealthCheck(ctx context.Context) calendar.Health {
	h := s.next.HealthCheck(ctx)
	result := "ok"
	if !h.OK {
		result = string(calendar.ErrCodeStorageUnavailable)
	} else {
		s.m.SetEventCount(s.backend, h.EventCount)
	}
	s.m.ObserveStoreOp(s.backend, "health", result)
	return h
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

var _ calendar.EventStore = (*InstrumentedStore)(nil)
