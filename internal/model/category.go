package model

import "time"

// Category is a user-defined label for media items. Names are only unique per
// account by convention, not by constraint.
type Category struct {
	ID        string    `json:"categoryId"   db:"id"`
	UserID    string    `json:"userId"       db:"user_id"`
	Name      string    `json:"categoryName" db:"category_name"`
	CreatedAt time.Time `json:"createdAt"    db:"created_at"`
}

// MediaCategory links one media item to one category. At most one link may
// exist per (media, category) pair; a duplicate assignment is a domain error,
// never a silent no-op.
type MediaCategory struct {
	ID         string    `json:"id"         db:"id"`
	MediaID    string    `json:"mediaId"    db:"media_id"`
	CategoryID string    `json:"categoryId" db:"category_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}
