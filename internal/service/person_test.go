package service

import (
	"context"
	"errors"
	"testing"

	"github.com/adampos/medialender/internal/apperror"
)

func TestPersonCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input PersonInput
	}{
		{"missing first name", PersonInput{LastName: "Mustermann"}},
		{"missing last name", PersonInput{FirstName: "Max"}},
		{"bad email", PersonInput{FirstName: "Max", LastName: "Mustermann", Email: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.personSvc.Create(ctx, "user-1", tc.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestPersonCreate_TrimsFields(t *testing.T) {
	f := newFixture(t)

	person, err := f.personSvc.Create(context.Background(), "user-1", PersonInput{
		FirstName: "  Max ",
		LastName:  " Mustermann ",
		Address:   " 1 Test Street ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if person.FirstName != "Max" || person.LastName != "Mustermann" {
		t.Errorf("names not trimmed: %q %q", person.FirstName, person.LastName)
	}
	if person.Address != "1 Test Street" {
		t.Errorf("address not trimmed: %q", person.Address)
	}
}

func TestPersonGetByID_OtherAccountForbidden(t *testing.T) {
	f := newFixture(t)
	person := f.addPerson(t, "user-1", "Max", "Mustermann")

	_, err := f.personSvc.GetByID(context.Background(), "user-2", person.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("GetByID() cross-account: error = %v, want ErrForbidden", err)
	}
}

func TestPersonSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addPerson(t, "user-1", "Max", "Mustermann")
	f.addPerson(t, "user-1", "Maximilian", "Schmidt")
	f.addPerson(t, "user-2", "Max", "Other")

	found, err := f.personSvc.Search(ctx, "user-1", "max", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Search(max) returned %d, want 2", len(found))
	}

	found, err = f.personSvc.Search(ctx, "user-1", "max", "must")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(found) != 1 || found[0].LastName != "Mustermann" {
		t.Errorf("Search(max, must) = %v, want only Mustermann", found)
	}

	if _, err := f.personSvc.Search(ctx, "user-1", "", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Search() without prefix: error = %v, want ErrValidation", err)
	}
}

func TestPersonUpdate(t *testing.T) {
	f := newFixture(t)
	person := f.addPerson(t, "user-1", "Max", "Mustermann")

	updated, err := f.personSvc.Update(context.Background(), "user-1", person.ID, PersonInput{
		FirstName: "Max",
		LastName:  "Mustermann",
		Phone:     "+49 123",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Phone != "+49 123" {
		t.Errorf("Phone = %q, want +49 123", updated.Phone)
	}
}

func TestPersonDelete_OtherAccountForbidden(t *testing.T) {
	f := newFixture(t)
	person := f.addPerson(t, "user-1", "Max", "Mustermann")

	err := f.personSvc.Delete(context.Background(), "user-2", person.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() cross-account: error = %v, want ErrForbidden", err)
	}
}
