package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// scriptedStore fails the first len(errs) CreateSlate calls with the scripted
// errors and records every attempt.
type scriptedStore struct {
	errs     []error
	attempts []domain.Slate
	items    [][]domain.SlateItem
	events   [][]domain.ImpressionEvent
}

func (s *scriptedStore) CreateSlate(_ context.Context, slate domain.Slate, items []domain.SlateItem, events []domain.ImpressionEvent) error {
	s.attempts = append(s.attempts, slate)
	s.items = append(s.items, items)
	s.events = append(s.events, events)
	if len(s.attempts) <= len(s.errs) {
		return s.errs[len(s.attempts)-1]
	}
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func sampleSelection() []domain.Scored {
	return []domain.Scored{
		{Candidate: domain.Candidate{ID: "c1"}, Score: 9, Reasons: []string{"never opened"}},
		{Candidate: domain.Candidate{ID: "c2"}, Score: 7, Reasons: []string{"bridge"}},
	}
}

func TestPersistWritesContiguousPositions(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{}
	p := NewPersistor(store, sequentialIDs(), nil)

	result, err := p.Persist(context.Background(), "u1", sampleSelection(), domain.SlateMeta{WeightsVersion: 1})
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	if len(store.attempts) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(store.attempts))
	}

	items := store.items[0]
	if len(items) != 2 {
		t.Fatalf("expected 2 slate items, got %d", len(items))
	}
	for i, item := range items {
		if item.Position != i+1 {
			t.Errorf("item %d: position %d, want %d", i, item.Position, i+1)
		}
		if item.SlateID != result.SlateID {
			t.Errorf("item %d: slate id %s, want %s", i, item.SlateID, result.SlateID)
		}
	}

	events := store.events[0]
	if len(events) != len(items) {
		t.Fatalf("expected one impression per item, got %d for %d items", len(events), len(items))
	}
	for i, ev := range events {
		if ev.SlateID != result.SlateID || ev.UserID != "u1" || ev.ContentID != items[i].ContentID {
			t.Errorf("event %d mismatched: %+v", i, ev)
		}
	}

	if result.Items[0].ContentID != "c1" || result.Items[1].ContentID != "c2" {
		t.Fatalf("result items out of order: %+v", result.Items)
	}
}

func TestPersistRetriesOnceOnTransientFailure(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{errs: []error{ports.Transient(errors.New("connection reset"))}}
	p := NewPersistor(store, sequentialIDs(), nil)

	result, err := p.Persist(context.Background(), "u1", sampleSelection(), domain.SlateMeta{})
	if err != nil {
		t.Fatalf("Persist should succeed on the retry: %v", err)
	}
	if len(store.attempts) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(store.attempts))
	}
	if store.attempts[0].ID == store.attempts[1].ID {
		t.Fatal("retry must start from scratch with a fresh slate id")
	}
	if result.SlateID != store.attempts[1].ID {
		t.Fatalf("result should carry the second attempt's id, got %s", result.SlateID)
	}
}

func TestPersistSecondTransientFailureSurfaces(t *testing.T) {
	t.Parallel()

	second := ports.Transient(errors.New("still down"))
	store := &scriptedStore{errs: []error{ports.Transient(errors.New("down")), second}}
	p := NewPersistor(store, sequentialIDs(), nil)

	_, err := p.Persist(context.Background(), "u1", sampleSelection(), domain.SlateMeta{})
	if !errors.Is(err, second) {
		t.Fatalf("second failure should surface unmodified, got %v", err)
	}
	if len(store.attempts) != 2 {
		t.Fatalf("never more than 2 attempts, got %d", len(store.attempts))
	}
}

func TestPersistFatalFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	fatal := errors.New("constraint violation")
	store := &scriptedStore{errs: []error{fatal}}
	p := NewPersistor(store, sequentialIDs(), nil)

	_, err := p.Persist(context.Background(), "u1", sampleSelection(), domain.SlateMeta{})
	if !errors.Is(err, fatal) {
		t.Fatalf("fatal error should surface, got %v", err)
	}
	if len(store.attempts) != 1 {
		t.Fatalf("fatal errors must not retry, got %d attempts", len(store.attempts))
	}
}

func TestPersistEmptyCreatesItemlessSlate(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{}
	p := NewPersistor(store, sequentialIDs(), nil)

	result, err := p.PersistEmpty(context.Background(), "u1", domain.SlateMeta{WeightsVersion: 1})
	if err != nil {
		t.Fatalf("PersistEmpty returned error: %v", err)
	}
	if result.SlateID == "" {
		t.Fatal("empty slate still needs an id")
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Fatalf("expected empty (non-nil) items, got %#v", result.Items)
	}
	if len(store.items[0]) != 0 || len(store.events[0]) != 0 {
		t.Fatal("empty slate must not write items or impressions")
	}
	if !store.attempts[0].Meta.Empty {
		t.Fatal("empty slate must be tagged in its metadata")
	}
}
