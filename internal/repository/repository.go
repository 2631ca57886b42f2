// Package repository declares the persistence interfaces consumed by the
// service layer. The concrete SQLite implementation lives in
// repository/sqlite; services only ever see these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/adampos/medialender/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type PersonRepository interface {
	CreatePerson(ctx context.Context, person *model.Person) error
	GetPersonByID(ctx context.Context, id string) (*model.Person, error)
	ListPersonsByUser(ctx context.Context, userID string) ([]model.Person, error)
	// SearchPersonsByName filters an account's persons by first-name prefix
	// and an optional last-name prefix (empty matches any last name).
	SearchPersonsByName(ctx context.Context, userID, firstPrefix, lastPrefix string) ([]model.Person, error)
	UpdatePerson(ctx context.Context, person *model.Person) error
	// DeletePerson removes the person and, in the same transaction,
	// transitions the media of every open loan held by that person back to
	// AVAILABLE. Either all releases and the deletion commit, or none do.
	DeletePerson(ctx context.Context, id string) error
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	ListCategoriesByUser(ctx context.Context, userID string) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type MediaRepository interface {
	// CreateMedia inserts the media row together with one link row per
	// category ID, all in one transaction. A category that does not resolve
	// fails the whole create; nothing is persisted.
	CreateMedia(ctx context.Context, media *model.Media, categoryIDs []string) error
	GetMediaByID(ctx context.Context, id string) (*model.Media, error)
	GetMediaWithCategories(ctx context.Context, id string) (*model.MediaWithCategories, error)
	ListMediaWithCategories(ctx context.Context, userID string) ([]model.MediaWithCategories, error)
	ListMediaByState(ctx context.Context, userID string, state model.MediaState) ([]model.Media, error)
	ListMediaByType(ctx context.Context, userID string, mediaType model.MediaType) ([]model.Media, error)
	ListFavoriteMedia(ctx context.Context, userID string) ([]model.Media, error)
	GetMediaByISBN(ctx context.Context, userID, isbn string) (*model.Media, error)
	// UpdateMedia writes the scalar fields and replaces the full category
	// link set atomically (full replace, not incremental).
	UpdateMedia(ctx context.Context, media *model.Media, categoryIDs []string) error
	SetMediaFavorite(ctx context.Context, id string, favorite bool) error
	DeleteMedia(ctx context.Context, id string) error
	// LinkCategory creates a single link row; a link that already exists is a
	// Conflict. UnlinkCategory removes one; a missing link is a NotFound.
	LinkCategory(ctx context.Context, mediaID, categoryID string) error
	UnlinkCategory(ctx context.Context, mediaID, categoryID string) error
}

// DueReminder is the projection consumed by the notification sweep: one row
// per unreturned loan due on or before the sweep date.
type DueReminder struct {
	LoanID          string
	PersonFirstName string
	PersonEmail     string
	MediaTitle      string
	OwnerUsername   string
}

type LoanRepository interface {
	// CreateBorrowing transitions the media AVAILABLE → BORROWED and inserts
	// the loan row in one transaction. The transition is a guarded update: if
	// the media is no longer AVAILABLE when the transaction runs (a
	// concurrent borrow won the race), the whole operation fails with a
	// Conflict and the loan is not persisted.
	CreateBorrowing(ctx context.Context, loan *model.Loan) error
	GetLoanByID(ctx context.Context, id string) (*model.Loan, error)
	// ReturnLoan closes the loan and transitions its media back to AVAILABLE
	// in one transaction.
	ReturnLoan(ctx context.Context, loanID string, returnedAt time.Time) error
	ListLoansByUser(ctx context.Context, userID string) ([]model.Loan, error)
	ListActiveLoansByUser(ctx context.Context, userID string) ([]model.Loan, error)
	// ListOverdueLoansByUser returns open loans with due_date strictly before
	// asOf.
	ListOverdueLoansByUser(ctx context.Context, userID string, asOf time.Time) ([]model.Loan, error)
	// ListDueReminders returns open loans across all accounts with due_date
	// on or before the given date, shaped for the reminder mailer.
	ListDueReminders(ctx context.Context, dueOn time.Time) ([]DueReminder, error)
}
