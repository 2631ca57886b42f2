package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

const MaxPersonNameLength = 100

// PersonService manages the borrowers of an account.
type PersonService struct {
	persons repository.PersonRepository
	logger  *slog.Logger
}

func NewPersonService(persons repository.PersonRepository, logger *slog.Logger) *PersonService {
	return &PersonService{persons: persons, logger: logger}
}

// PersonInput carries the writable fields of a borrower record.
type PersonInput struct {
	FirstName string
	LastName  string
	Address   string
	Email     string
	Phone     string
}

func validatePersonInput(in PersonInput) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return apperror.ValidationFailed("firstName", "first name is required")
	}
	if len(in.FirstName) > MaxPersonNameLength {
		return apperror.ValidationFailed("firstName",
			fmt.Sprintf("first name must be %d characters or less", MaxPersonNameLength))
	}
	if strings.TrimSpace(in.LastName) == "" {
		return apperror.ValidationFailed("lastName", "last name is required")
	}
	if len(in.LastName) > MaxPersonNameLength {
		return apperror.ValidationFailed("lastName",
			fmt.Sprintf("last name must be %d characters or less", MaxPersonNameLength))
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperror.ValidationFailed("email", "email address is not valid")
		}
	}
	return nil
}

func (s *PersonService) Create(ctx context.Context, userID string, in PersonInput) (*model.Person, error) {
	if err := validatePersonInput(in); err != nil {
		return nil, err
	}

	person := &model.Person{
		UserID:    userID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Address:   strings.TrimSpace(in.Address),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
	if err := s.persons.CreatePerson(ctx, person); err != nil {
		s.logger.Error("failed to create person",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating person: %w", err)
	}

	s.logger.Info("person created",
		slog.String("id", person.ID),
		slog.String("userID", userID),
	)
	return person, nil
}

// GetByID returns the person if it belongs to the calling account.
func (s *PersonService) GetByID(ctx context.Context, userID, id string) (*model.Person, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "person ID is required")
	}

	person, err := s.persons.GetPersonByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if person.UserID != userID {
		return nil, apperror.Forbidden("person belongs to another account")
	}
	return person, nil
}

func (s *PersonService) List(ctx context.Context, userID string) ([]model.Person, error) {
	return s.persons.ListPersonsByUser(ctx, userID)
}

// Search finds borrowers by case-insensitive name prefix. An empty last-name
// prefix matches everyone with the given first-name prefix.
func (s *PersonService) Search(ctx context.Context, userID, firstPrefix, lastPrefix string) ([]model.Person, error) {
	firstPrefix = strings.TrimSpace(firstPrefix)
	lastPrefix = strings.TrimSpace(lastPrefix)
	if firstPrefix == "" && lastPrefix == "" {
		return nil, apperror.ValidationFailed("firstName", "a search prefix is required")
	}
	return s.persons.SearchPersonsByName(ctx, userID, firstPrefix, lastPrefix)
}

func (s *PersonService) Update(ctx context.Context, userID, id string, in PersonInput) (*model.Person, error) {
	person, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validatePersonInput(in); err != nil {
		return nil, err
	}

	person.FirstName = strings.TrimSpace(in.FirstName)
	person.LastName = strings.TrimSpace(in.LastName)
	person.Address = strings.TrimSpace(in.Address)
	person.Email = strings.TrimSpace(in.Email)
	person.Phone = strings.TrimSpace(in.Phone)

	if err := s.persons.UpdatePerson(ctx, person); err != nil {
		s.logger.Error("failed to update person",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating person: %w", err)
	}
	return person, nil
}

// Delete removes a borrower. Any media they still hold is released back to
// AVAILABLE and their loan history goes with them; the repository does both
// in one transaction.
func (s *PersonService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}

	if err := s.persons.DeletePerson(ctx, id); err != nil {
		s.logger.Error("failed to delete person",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting person: %w", err)
	}

	s.logger.Info("person deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}
