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

var _ repository.PersonRepository = (*DB)(nil)

const personColumns = `id, user_id, first_name, last_name, address, email, phone, created_at`

func (db *DB) CreatePerson(ctx context.Context, person *model.Person) error {
	person.ID = xid.New().String()
	person.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO persons (id, user_id, first_name, last_name, address, email, phone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID,
		person.UserID,
		person.FirstName,
		person.LastName,
		person.Address,
		person.Email,
		person.Phone,
		person.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating person: %w", err)
	}
	return nil
}

func (db *DB) GetPersonByID(ctx context.Context, id string) (*model.Person, error) {
	var p model.Person
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName,
		&p.Address, &p.Email, &p.Phone, &p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("person", id)
		}
		return nil, fmt.Errorf("sqlite: getting person %s: %w", id, err)
	}
	return &p, nil
}

func (db *DB) ListPersonsByUser(ctx context.Context, userID string) ([]model.Person, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons
		 WHERE user_id = ?
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing persons: %w", err)
	}
	defer rows.Close()

	return collectPersons(rows)
}

func (db *DB) SearchPersonsByName(ctx context.Context, userID, firstPrefix, lastPrefix string) ([]model.Person, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons
		 WHERE user_id = ?
		   AND first_name LIKE ? || '%'
		   AND (? = '' OR last_name LIKE ? || '%')
		 ORDER BY last_name, first_name`,
		userID, firstPrefix, lastPrefix, lastPrefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching persons: %w", err)
	}
	defer rows.Close()

	return collectPersons(rows)
}

func collectPersons(rows *sql.Rows) ([]model.Person, error) {
	persons := make([]model.Person, 0)
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.FirstName, &p.LastName,
			&p.Address, &p.Email, &p.Phone, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning person row: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating persons: %w", err)
	}
	return persons, nil
}

func (db *DB) UpdatePerson(ctx context.Context, person *model.Person) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE persons
		 SET first_name = ?, last_name = ?, address = ?, email = ?, phone = ?
		 WHERE id = ?`,
		person.FirstName,
		person.LastName,
		person.Address,
		person.Email,
		person.Phone,
		person.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating person %s: %w", person.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("person", person.ID)
	}
	return nil
}

// DeletePerson removes the person row after releasing the media of every
// open loan the person still holds. The releases and the deletion share one
// transaction: a failed delete leaves every media state untouched.
//
// Loan rows themselves cascade away with the person (FK ON DELETE CASCADE);
// only the media availability needs explicit care here.
func (db *DB) DeletePerson(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM persons WHERE id = ?`, id,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking person %s: %w", id, err)
		}
		if exists == 0 {
			return apperror.NotFound("person", id)
		}

		// Release every media item held by an open loan of this person.
		_, err = tx.ExecContext(ctx,
			`UPDATE media SET media_state = ?
			 WHERE id IN (
				SELECT media_id FROM loans
				WHERE person_id = ? AND returned_at IS NULL
			 )`,
			model.StateAvailable, id)
		if err != nil {
			return fmt.Errorf("sqlite: releasing media for person %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM persons WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting person %s: %w", id, err)
		}
		return nil
	})
}
