package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

// LoanService runs the lending lifecycle: handing media out, taking them
// back, and reporting what is open or overdue. It pulls in the person and
// media repositories because both sides of a loan must belong to the calling
// account before any state changes.
type LoanService struct {
	loans   repository.LoanRepository
	persons repository.PersonRepository
	media   repository.MediaRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoanService(
	loans repository.LoanRepository,
	persons repository.PersonRepository,
	media repository.MediaRepository,
	logger *slog.Logger,
) *LoanService {
	return &LoanService{
		loans:   loans,
		persons: persons,
		media:   media,
		logger:  logger,
		now:     time.Now,
	}
}

// DueDateFor returns the default due date for a loan created on the given
// day: one calendar month later. The default always anchors to the creation
// day, not to a backdated borrow time.
func DueDateFor(createdOn time.Time) time.Time {
	return createdOn.AddDate(0, 1, 0)
}

// LoanInput carries the fields of a borrowing request. BorrowedAt and
// DueDate are optional; they default to now and one month from today.
type LoanInput struct {
	PersonID   string
	MediaID    string
	BorrowedAt *time.Time
	DueDate    *time.Time
}

// Create hands a media item to a borrower. Both the borrower and the media
// must belong to the calling account, and the media must be AVAILABLE; the
// repository enforces availability atomically, so two simultaneous borrowings
// of the same item cannot both succeed.
func (s *LoanService) Create(ctx context.Context, userID string, in LoanInput) (*model.Loan, error) {
	if in.PersonID == "" {
		return nil, apperror.ValidationFailed("personId", "person ID is required")
	}
	if in.MediaID == "" {
		return nil, apperror.ValidationFailed("mediaId", "media ID is required")
	}

	person, err := s.persons.GetPersonByID(ctx, in.PersonID)
	if err != nil {
		return nil, err
	}
	if person.UserID != userID {
		return nil, apperror.Forbidden("person belongs to another account")
	}

	media, err := s.media.GetMediaByID(ctx, in.MediaID)
	if err != nil {
		return nil, err
	}
	if media.UserID != userID {
		return nil, apperror.Forbidden("media belongs to another account")
	}

	borrowedAt := s.now()
	if in.BorrowedAt != nil {
		borrowedAt = *in.BorrowedAt
	}
	dueDate := DueDateFor(s.now())
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}
	if model.DateOnly(dueDate).Before(model.DateOnly(borrowedAt)) {
		return nil, apperror.ValidationFailed("dueDate", "due date must not lie before the borrow date")
	}

	loan := &model.Loan{
		PersonID:   in.PersonID,
		MediaID:    in.MediaID,
		BorrowedAt: borrowedAt,
		DueDate:    dueDate,
	}
	if err := s.loans.CreateBorrowing(ctx, loan); err != nil {
		return nil, err
	}

	s.logger.Info("loan created",
		slog.String("loanID", loan.ID),
		slog.String("mediaID", in.MediaID),
		slog.String("personID", in.PersonID),
		slog.Time("dueDate", dueDate),
	)

	loan.Person = person
	media.State = model.StateBorrowed
	loan.Media = media
	return loan, nil
}

// GetByID returns the loan if it belongs to the calling account. Ownership
// runs through the borrower.
func (s *LoanService) GetByID(ctx context.Context, userID, id string) (*model.Loan, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("loanId", "loan ID is required")
	}

	loan, err := s.loans.GetLoanByID(ctx, id)
	if err != nil {
		return nil, err
	}

	person, err := s.persons.GetPersonByID(ctx, loan.PersonID)
	if err != nil {
		return nil, err
	}
	if person.UserID != userID {
		return nil, apperror.Forbidden("loan belongs to another account")
	}
	loan.Person = person
	return loan, nil
}

// Return closes a loan and releases its media. The checks run in a fixed
// order so callers get the most specific error: unknown loan, already
// returned, unusable stored state, and finally a return time that would lie
// before the borrow time.
func (s *LoanService) Return(ctx context.Context, userID, loanID string, returnedAt *time.Time) (*model.Loan, error) {
	loan, err := s.GetByID(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}

	if loan.ReturnedAt != nil {
		return nil, apperror.Conflict("loan is already returned")
	}
	if loan.BorrowedAt.IsZero() {
		return nil, apperror.Inconsistent("loan has no borrow timestamp")
	}

	when := s.now()
	if returnedAt != nil {
		when = *returnedAt
	}
	if when.Before(loan.BorrowedAt) {
		return nil, apperror.ValidationFailed("returnedAt", "return time must not lie before the borrow time")
	}

	if err := s.loans.ReturnLoan(ctx, loanID, when); err != nil {
		return nil, err
	}

	s.logger.Info("loan returned",
		slog.String("loanID", loanID),
		slog.String("mediaID", loan.MediaID),
	)

	loan.ReturnedAt = &when
	return loan, nil
}

func (s *LoanService) List(ctx context.Context, userID string) ([]model.Loan, error) {
	return s.loans.ListLoansByUser(ctx, userID)
}

func (s *LoanService) ListActive(ctx context.Context, userID string) ([]model.Loan, error) {
	return s.loans.ListActiveLoansByUser(ctx, userID)
}

// ListOverdue returns active loans whose due date lies before asOf, which
// defaults to today. A loan due on the as-of day itself is not overdue yet.
func (s *LoanService) ListOverdue(ctx context.Context, userID string, asOf *time.Time) ([]model.Loan, error) {
	reference := s.now()
	if asOf != nil {
		reference = *asOf
	}
	return s.loans.ListOverdueLoansByUser(ctx, userID, reference)
}
