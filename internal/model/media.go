package model

import "time"

// MediaState is the availability state of a media item.
//
// The lending engine owns exactly two transitions:
//
//	AVAILABLE → BORROWED   (loan creation)
//	BORROWED  → AVAILABLE  (loan return, or borrower deletion)
//
// UNAVAILABLE marks an item administratively withdrawn via a media update;
// nothing in the loan path ever moves an item out of UNAVAILABLE.
type MediaState string

const (
	StateAvailable   MediaState = "AVAILABLE"
	StateBorrowed    MediaState = "BORROWED"
	StateUnavailable MediaState = "UNAVAILABLE"
)

// Valid reports whether s is one of the known states.
func (s MediaState) Valid() bool {
	switch s {
	case StateAvailable, StateBorrowed, StateUnavailable:
		return true
	}
	return false
}

// MediaType classifies a media item.
type MediaType string

const (
	TypeBook  MediaType = "BOOK"
	TypeCD    MediaType = "CD"
	TypeDVD   MediaType = "DVD"
	TypeGame  MediaType = "GAME"
	TypeOther MediaType = "OTHER"
)

func (t MediaType) Valid() bool {
	switch t {
	case TypeBook, TypeCD, TypeDVD, TypeGame, TypeOther:
		return true
	}
	return false
}

// Media is a lendable catalog entry owned by an account.
//
// ReleaseYear is a pointer because "unknown" and "year zero" are different
// things; the remaining optional fields use the empty string as their zero
// value. Category membership is not embedded here — reads that need it go
// through the MediaWithCategories projection instead of lazy back-references.
type Media struct {
	ID          string     `json:"id"          db:"id"`
	UserID      string     `json:"userId"      db:"user_id"`
	Title       string     `json:"title"       db:"title"`
	Producer    string     `json:"producer"    db:"producer"`
	Type        MediaType  `json:"type"        db:"type"`
	State       MediaState `json:"mediaState"  db:"media_state"`
	ReleaseYear *int       `json:"releaseYear" db:"release_year"`
	Notes       string     `json:"notes"       db:"notes"`
	ISBN        string     `json:"isbn"        db:"isbn"`
	Favorite    bool       `json:"isFavorite"  db:"is_favorite"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
}

// CategoryRef is the id:name pair carried by the media-with-categories
// projection.
type CategoryRef struct {
	ID   string `json:"categoryId"`
	Name string `json:"categoryName"`
}

// MediaWithCategories is the aggregated read view: one media row joined with
// all its category links. Built by a single grouped query, never by walking
// object references.
type MediaWithCategories struct {
	Media
	Categories []CategoryRef `json:"categories"`
}
