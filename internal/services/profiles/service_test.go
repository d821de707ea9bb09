package profiles

import (
	"context"
	"errors"
	"testing"

	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
)

type stubProfileStore struct {
	records map[int64]pgrepo.ProfileRecord
	err     error
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{records: make(map[int64]pgrepo.ProfileRecord)}
}

func (s *stubProfileStore) Upsert(_ context.Context, p pgrepo.ProfileRecord) (pgrepo.ProfileRecord, error) {
	if s.err != nil {
		return pgrepo.ProfileRecord{}, s.err
	}
	s.records[p.UserID] = p
	return p, nil
}

func (s *stubProfileStore) GetByUserID(_ context.Context, userID int64) (pgrepo.ProfileRecord, error) {
	if s.err != nil {
		return pgrepo.ProfileRecord{}, s.err
	}
	rec, ok := s.records[userID]
	if !ok {
		return pgrepo.ProfileRecord{}, pgrepo.ErrProfileNotFound
	}
	return rec, nil
}

func validInput() UpsertInput {
	return UpsertInput{
		DisplayName:  "Dana",
		Age:          22,
		Program:      "CS",
		Year:         "3",
		Interests:    []string{"climbing", " coffee "},
		Prompts:      []Prompt{{Question: "Two truths", Answer: "and a lie"}},
		Photos:       []string{"photos/1/a.jpg"},
		Discoverable: true,
	}
}

func TestUpsertMineRoundTrip(t *testing.T) {
	store := newStubProfileStore()
	svc := NewService(store)

	saved, err := svc.UpsertMine(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("UpsertMine: %v", err)
	}
	if saved.DisplayName != "Dana" || saved.Age != 22 || !saved.Discoverable {
		t.Fatalf("unexpected saved profile: %+v", saved)
	}
	if len(saved.Interests) != 2 || saved.Interests[1] != "coffee" {
		t.Fatalf("interests = %v, want trimmed values", saved.Interests)
	}

	got, err := svc.GetMine(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if got.DisplayName != "Dana" || len(got.Prompts) != 1 || got.Prompts[0].Question != "Two truths" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestUpsertMineReplacesInFull(t *testing.T) {
	store := newStubProfileStore()
	svc := NewService(store)

	if _, err := svc.UpsertMine(context.Background(), 1, validInput()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	next := validInput()
	next.DisplayName = "D."
	next.Prompts = nil
	next.Discoverable = false
	if _, err := svc.UpsertMine(context.Background(), 1, next); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := svc.GetMine(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if got.DisplayName != "D." || len(got.Prompts) != 0 || got.Discoverable {
		t.Fatalf("profile not replaced: %+v", got)
	}
}

func TestGetMineNotFound(t *testing.T) {
	svc := NewService(newStubProfileStore())

	if _, err := svc.GetMine(context.Background(), 1); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestUpsertMineValidation(t *testing.T) {
	svc := NewService(newStubProfileStore())

	cases := []struct {
		name   string
		mutate func(*UpsertInput)
	}{
		{name: "blank name", mutate: func(in *UpsertInput) { in.DisplayName = "  " }},
		{name: "underage", mutate: func(in *UpsertInput) { in.Age = 17 }},
		{name: "age too high", mutate: func(in *UpsertInput) { in.Age = 130 }},
		{name: "too many photos", mutate: func(in *UpsertInput) {
			in.Photos = make([]string, maxPhotos+1)
			for i := range in.Photos {
				in.Photos[i] = "photos/1/x.jpg"
			}
		}},
		{name: "empty prompt answer", mutate: func(in *UpsertInput) {
			in.Prompts = []Prompt{{Question: "Q", Answer: " "}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.UpsertMine(context.Background(), 1, in); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpsertMinePropagatesStoreErrors(t *testing.T) {
	store := newStubProfileStore()
	store.err = errors.New("pg down")
	svc := NewService(store)

	if _, err := svc.UpsertMine(context.Background(), 1, validInput()); !errors.Is(err, store.err) {
		t.Fatalf("err = %v, want %v", err, store.err)
	}
}
