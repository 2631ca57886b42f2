package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

var _ repository.MediaRepository = (*DB)(nil)

const mediaColumns = `id, user_id, title, producer, type, media_state, release_year, notes, isbn, is_favorite, created_at`

// CreateMedia inserts the media row and one link row per category ID in a
// single transaction. Link inserts hit the FK on categories(id), so an
// unresolved category rolls back the whole create.
func (db *DB) CreateMedia(ctx context.Context, media *model.Media, categoryIDs []string) error {
	media.ID = xid.New().String()
	media.CreatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO media (id, user_id, title, producer, type, media_state, release_year, notes, isbn, is_favorite, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			media.ID,
			media.UserID,
			media.Title,
			media.Producer,
			media.Type,
			media.State,
			nullableYear(media.ReleaseYear),
			media.Notes,
			media.ISBN,
			media.Favorite,
			media.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating media: %w", err)
		}

		return insertCategoryLinks(ctx, tx, media.ID, categoryIDs)
	})
}

func insertCategoryLinks(ctx context.Context, tx *sql.Tx, mediaID string, categoryIDs []string) error {
	now := time.Now()
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO media_category (id, media_id, category_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			xid.New().String(), mediaID, categoryID, now)
		if err != nil {
			return fmt.Errorf("sqlite: linking category %s to media %s: %w", categoryID, mediaID, err)
		}
	}
	return nil
}

func (db *DB) GetMediaByID(ctx context.Context, id string) (*model.Media, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("media", id)
		}
		return nil, fmt.Errorf("sqlite: getting media %s: %w", id, err)
	}
	return m, nil
}

// scanMedia reads media columns in the mediaColumns order from any Scan-shaped
// source (sql.Row or sql.Rows).
func scanMedia(scan func(dest ...any) error) (*model.Media, error) {
	var (
		m    model.Media
		year sql.NullInt64
	)
	err := scan(
		&m.ID, &m.UserID, &m.Title, &m.Producer, &m.Type, &m.State,
		&year, &m.Notes, &m.ISBN, &m.Favorite, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		m.ReleaseYear = &y
	}
	return &m, nil
}

func nullableYear(year *int) any {
	if year == nil {
		return nil
	}
	return *year
}

// categoryPairSeparator joins the "id:name" pairs inside the aggregated
// projection. The ASCII unit separator cannot collide with category names
// the way a comma would.
const categoryPairSeparator = "\x1f"

// mediaWithCategoriesQuery aggregates each media row with a joined list of
// "id:name" pairs for its categories. Parsing the pairs back out happens in
// parseCategoryPairs; media without links get an empty (non-nil) slice.
const mediaWithCategoriesQuery = `
	SELECT m.id, m.user_id, m.title, m.producer, m.type, m.media_state,
	       m.release_year, m.notes, m.isbn, m.is_favorite, m.created_at,
	       COALESCE(group_concat(c.id || ':' || c.category_name, char(31)), '') AS category_pairs
	FROM media m
	LEFT JOIN media_category mc ON mc.media_id = m.id
	LEFT JOIN categories c      ON c.id = mc.category_id`

func (db *DB) GetMediaWithCategories(ctx context.Context, id string) (*model.MediaWithCategories, error) {
	rows, err := db.conn.QueryContext(ctx,
		mediaWithCategoriesQuery+`
		 WHERE m.id = ?
		 GROUP BY m.id`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting media %s with categories: %w", id, err)
	}
	defer rows.Close()

	views, err := collectMediaWithCategories(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperror.NotFound("media", id)
	}
	return &views[0], nil
}

func (db *DB) ListMediaWithCategories(ctx context.Context, userID string) ([]model.MediaWithCategories, error) {
	rows, err := db.conn.QueryContext(ctx,
		mediaWithCategoriesQuery+`
		 WHERE m.user_id = ?
		 GROUP BY m.id
		 ORDER BY m.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing media with categories: %w", err)
	}
	defer rows.Close()

	return collectMediaWithCategories(rows)
}

func collectMediaWithCategories(rows *sql.Rows) ([]model.MediaWithCategories, error) {
	views := make([]model.MediaWithCategories, 0)
	for rows.Next() {
		var (
			m     model.Media
			year  sql.NullInt64
			pairs string
		)
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Title, &m.Producer, &m.Type, &m.State,
			&year, &m.Notes, &m.ISBN, &m.Favorite, &m.CreatedAt, &pairs,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning media row: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			m.ReleaseYear = &y
		}
		views = append(views, model.MediaWithCategories{
			Media:      m,
			Categories: parseCategoryPairs(pairs),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating media: %w", err)
	}
	return views, nil
}

// parseCategoryPairs splits the separator-joined "id:name" pairs back into
// refs. IDs are xids, so the first ':' always separates the id from the name.
func parseCategoryPairs(pairs string) []model.CategoryRef {
	refs := make([]model.CategoryRef, 0)
	if pairs == "" {
		return refs
	}
	for _, pair := range strings.Split(pairs, categoryPairSeparator) {
		id, name, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		refs = append(refs, model.CategoryRef{ID: id, Name: name})
	}
	return refs
}

func (db *DB) ListMediaByState(ctx context.Context, userID string, state model.MediaState) ([]model.Media, error) {
	return db.listMedia(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE user_id = ? AND media_state = ?
		 ORDER BY created_at DESC`, userID, state)
}

func (db *DB) ListMediaByType(ctx context.Context, userID string, mediaType model.MediaType) ([]model.Media, error) {
	return db.listMedia(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE user_id = ? AND type = ?
		 ORDER BY created_at DESC`, userID, mediaType)
}

func (db *DB) ListFavoriteMedia(ctx context.Context, userID string) ([]model.Media, error) {
	return db.listMedia(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE user_id = ? AND is_favorite = 1
		 ORDER BY created_at DESC`, userID)
}

func (db *DB) listMedia(ctx context.Context, query string, args ...any) ([]model.Media, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing media: %w", err)
	}
	defer rows.Close()

	items := make([]model.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning media row: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating media: %w", err)
	}
	return items, nil
}

func (db *DB) GetMediaByISBN(ctx context.Context, userID, isbn string) (*model.Media, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE user_id = ? AND isbn = ?`, userID, isbn)
	m, err := scanMedia(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("media", isbn)
		}
		return nil, fmt.Errorf("sqlite: getting media by isbn %s: %w", isbn, err)
	}
	return m, nil
}

// UpdateMedia rewrites the scalar columns and replaces the category link set
// in one transaction. The old links are deleted and the new set inserted;
// an unresolved category ID fails the FK and rolls the whole update back,
// leaving the previous links untouched.
func (db *DB) UpdateMedia(ctx context.Context, media *model.Media, categoryIDs []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE media
			 SET title = ?, producer = ?, type = ?, media_state = ?,
			     release_year = ?, notes = ?, isbn = ?, is_favorite = ?
			 WHERE id = ?`,
			media.Title,
			media.Producer,
			media.Type,
			media.State,
			nullableYear(media.ReleaseYear),
			media.Notes,
			media.ISBN,
			media.Favorite,
			media.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating media %s: %w", media.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("media", media.ID)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM media_category WHERE media_id = ?`, media.ID); err != nil {
			return fmt.Errorf("sqlite: clearing category links for media %s: %w", media.ID, err)
		}

		return insertCategoryLinks(ctx, tx, media.ID, categoryIDs)
	})
}

func (db *DB) SetMediaFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE media SET is_favorite = ? WHERE id = ?`, favorite, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting favorite on media %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("media", id)
	}
	return nil
}

func (db *DB) DeleteMedia(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting media %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("media", id)
	}
	return nil
}

// LinkCategory adds one media↔category link. The duplicate check and the
// insert share a transaction so two concurrent assigns cannot both succeed;
// the UNIQUE(media_id, category_id) constraint backs this up at the schema
// level.
func (db *DB) LinkCategory(ctx context.Context, mediaID, categoryID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM media_category
			 WHERE media_id = ? AND category_id = ?`,
			mediaID, categoryID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("sqlite: checking category link: %w", err)
		}
		if count > 0 {
			return apperror.Conflict("category is already assigned")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO media_category (id, media_id, category_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			xid.New().String(), mediaID, categoryID, time.Now())
		if err != nil {
			return fmt.Errorf("sqlite: linking category %s to media %s: %w", categoryID, mediaID, err)
		}
		return nil
	})
}

func (db *DB) UnlinkCategory(ctx context.Context, mediaID, categoryID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM media_category
		 WHERE media_id = ? AND category_id = ?`,
		mediaID, categoryID)
	if err != nil {
		return fmt.Errorf("sqlite: unlinking category %s from media %s: %w", categoryID, mediaID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "category is not associated with this media",
		}
	}
	return nil
}
