package model

import "time"

// Loan binds one media item to one person for a bounded borrowing period.
//
// PersonID, MediaID, and BorrowedAt are immutable once the loan is persisted.
// ReturnedAt is nil while the loan is open; setting it closes the loan and is
// the only mutation a loan ever sees. DueDate is a calendar date — the time
// component is always midnight UTC and is ignored by comparisons.
//
// Person and Media are optional resolved views attached by read queries and
// by CreateLoan's response; they are never read back from a Loan on writes.
type Loan struct {
	ID         string     `json:"loanId"     db:"id"`
	PersonID   string     `json:"personId"   db:"person_id"`
	MediaID    string     `json:"mediaId"    db:"media_id"`
	BorrowedAt time.Time  `json:"borrowedAt" db:"borrowed_at"`
	DueDate    time.Time  `json:"dueDate"    db:"due_date"`
	ReturnedAt *time.Time `json:"returnedAt" db:"returned_at"`

	Person *Person `json:"person,omitempty"`
	Media  *Media  `json:"media,omitempty"`
}

// Active reports whether the loan is still open (nothing returned yet).
func (l *Loan) Active() bool {
	return l.ReturnedAt == nil
}

// Overdue reports whether the loan is open and its due date lies strictly
// before asOf (compared as calendar dates).
func (l *Loan) Overdue(asOf time.Time) bool {
	return l.Active() && DateOnly(l.DueDate).Before(DateOnly(asOf))
}

// DateOnly truncates t to midnight UTC, turning a timestamp into a calendar
// date usable for due-date comparisons regardless of the source location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
