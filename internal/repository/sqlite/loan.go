package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

var _ repository.LoanRepository = (*DB)(nil)

// dueDateLayout is how due_date is stored. Date-only text compares
// lexicographically in the same order as chronologically, so range filters
// work with plain string comparison in SQL.
const dueDateLayout = "2006-01-02"

// CreateBorrowing inserts the loan and flips the media to BORROWED in one
// transaction. The media update is guarded on the current state: if another
// borrowing won the race the update touches zero rows and the whole
// transaction rolls back with a conflict.
func (db *DB) CreateBorrowing(ctx context.Context, loan *model.Loan) error {
	loan.ID = xid.New().String()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE media SET media_state = ? WHERE id = ? AND media_state = ?`,
			model.StateBorrowed, loan.MediaID, model.StateAvailable)
		if err != nil {
			return fmt.Errorf("sqlite: marking media %s borrowed: %w", loan.MediaID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.Conflict("media is not available for borrowing")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO loans (id, person_id, media_id, borrowed_at, due_date, returned_at)
			 VALUES (?, ?, ?, ?, ?, NULL)`,
			loan.ID,
			loan.PersonID,
			loan.MediaID,
			loan.BorrowedAt,
			loan.DueDate.Format(dueDateLayout),
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating loan: %w", err)
		}
		return nil
	})
}

func (db *DB) GetLoanByID(ctx context.Context, id string) (*model.Loan, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, person_id, media_id, borrowed_at, due_date, returned_at
		 FROM loans WHERE id = ?`, id)

	var (
		loan       model.Loan
		dueDate    string
		returnedAt sql.NullTime
	)
	err := row.Scan(&loan.ID, &loan.PersonID, &loan.MediaID, &loan.BorrowedAt, &dueDate, &returnedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("loan", id)
		}
		return nil, fmt.Errorf("sqlite: getting loan %s: %w", id, err)
	}

	loan.DueDate, err = time.Parse(dueDateLayout, dueDate)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parsing due date of loan %s: %w", id, err)
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		loan.ReturnedAt = &t
	}
	return &loan, nil
}

// ReturnLoan stamps the return time and releases the media in one
// transaction. The loan update is guarded on returned_at being unset, so a
// second concurrent return sees zero rows and conflicts instead of
// overwriting the timestamp.
func (db *DB) ReturnLoan(ctx context.Context, loanID string, returnedAt time.Time) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var mediaID string
		err := tx.QueryRowContext(ctx,
			`SELECT media_id FROM loans WHERE id = ?`, loanID).Scan(&mediaID)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("loan", loanID)
			}
			return fmt.Errorf("sqlite: getting loan %s: %w", loanID, err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE loans SET returned_at = ? WHERE id = ? AND returned_at IS NULL`,
			returnedAt, loanID)
		if err != nil {
			return fmt.Errorf("sqlite: returning loan %s: %w", loanID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.Conflict("loan is already returned")
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE media SET media_state = ? WHERE id = ?`,
			model.StateAvailable, mediaID)
		if err != nil {
			return fmt.Errorf("sqlite: releasing media %s: %w", mediaID, err)
		}
		return nil
	})
}

// loanViewQuery joins each loan with its borrower and media. Ownership scoping
// goes through the person row; loans only ever reference persons and media of
// the same account.
const loanViewQuery = `
	SELECT l.id, l.person_id, l.media_id, l.borrowed_at, l.due_date, l.returned_at,
	       p.id, p.user_id, p.first_name, p.last_name, p.address, p.email, p.phone, p.created_at,
	       m.id, m.user_id, m.title, m.producer, m.type, m.media_state, m.release_year, m.notes, m.isbn, m.is_favorite, m.created_at
	FROM loans l
	JOIN persons p ON p.id = l.person_id
	JOIN media m   ON m.id = l.media_id`

func (db *DB) ListLoansByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return db.listLoans(ctx,
		loanViewQuery+`
		 WHERE p.user_id = ?
		 ORDER BY l.borrowed_at DESC`, userID)
}

func (db *DB) ListActiveLoansByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return db.listLoans(ctx,
		loanViewQuery+`
		 WHERE p.user_id = ? AND l.returned_at IS NULL
		 ORDER BY l.due_date`, userID)
}

func (db *DB) ListOverdueLoansByUser(ctx context.Context, userID string, asOf time.Time) ([]model.Loan, error) {
	return db.listLoans(ctx,
		loanViewQuery+`
		 WHERE p.user_id = ? AND l.returned_at IS NULL AND l.due_date < ?
		 ORDER BY l.due_date`, userID, asOf.Format(dueDateLayout))
}

func (db *DB) listLoans(ctx context.Context, query string, args ...any) ([]model.Loan, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		var (
			loan       model.Loan
			person     model.Person
			media      model.Media
			dueDate    string
			returnedAt sql.NullTime
			year       sql.NullInt64
		)
		err := rows.Scan(
			&loan.ID, &loan.PersonID, &loan.MediaID, &loan.BorrowedAt, &dueDate, &returnedAt,
			&person.ID, &person.UserID, &person.FirstName, &person.LastName,
			&person.Address, &person.Email, &person.Phone, &person.CreatedAt,
			&media.ID, &media.UserID, &media.Title, &media.Producer, &media.Type, &media.State,
			&year, &media.Notes, &media.ISBN, &media.Favorite, &media.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning loan row: %w", err)
		}

		loan.DueDate, err = time.Parse(dueDateLayout, dueDate)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parsing due date of loan %s: %w", loan.ID, err)
		}
		if returnedAt.Valid {
			t := returnedAt.Time
			loan.ReturnedAt = &t
		}
		if year.Valid {
			y := int(year.Int64)
			media.ReleaseYear = &y
		}
		loan.Person = &person
		loan.Media = &media
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating loans: %w", err)
	}
	return loans, nil
}

// ListDueReminders collects one reminder row per unreturned loan whose due
// date is on or before dueOn, covering both loans due that day and loans
// already overdue.
func (db *DB) ListDueReminders(ctx context.Context, dueOn time.Time) ([]repository.DueReminder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT l.id, p.first_name, p.email, m.title, u.username
		 FROM loans l
		 JOIN persons p ON p.id = l.person_id
		 JOIN media m   ON m.id = l.media_id
		 JOIN users u   ON u.id = p.user_id
		 WHERE l.returned_at IS NULL AND l.due_date <= ?
		 ORDER BY l.due_date`, dueOn.Format(dueDateLayout))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing due reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]repository.DueReminder, 0)
	for rows.Next() {
		var r repository.DueReminder
		if err := rows.Scan(&r.LoanID, &r.PersonFirstName, &r.PersonEmail, &r.MediaTitle, &r.OwnerUsername); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reminders: %w", err)
	}
	return reminders, nil
}
