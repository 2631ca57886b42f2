package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
)

func TestCreateMedia_WithCategories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")
	classic := createTestCategory(t, db, user.ID, "Classic")

	media := createTestMedia(t, db, user.ID, "The Hobbit", fantasy.ID, classic.ID)

	view, err := db.GetMediaWithCategories(ctx, media.ID)
	if err != nil {
		t.Fatalf("GetMediaWithCategories() error = %v", err)
	}
	if len(view.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(view.Categories))
	}
	names := map[string]bool{}
	for _, c := range view.Categories {
		names[c.Name] = true
		if c.ID == "" {
			t.Error("category ref has empty ID")
		}
	}
	if !names["Fantasy"] || !names["Classic"] {
		t.Errorf("category names = %v, want Fantasy and Classic", names)
	}
}

// Category names may contain commas and colons; the aggregated projection
// must return them untouched.
func TestGetMediaWithCategories_PunctuatedNames(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	comma := createTestCategory(t, db, user.ID, "Sword, Sorcery & Such")
	colon := createTestCategory(t, db, user.ID, "History: Ancient")

	media := createTestMedia(t, db, user.ID, "Conan", comma.ID, colon.ID)

	view, err := db.GetMediaWithCategories(ctx, media.ID)
	if err != nil {
		t.Fatalf("GetMediaWithCategories() error = %v", err)
	}
	if len(view.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(view.Categories))
	}
	names := map[string]bool{}
	for _, c := range view.Categories {
		names[c.Name] = true
	}
	if !names["Sword, Sorcery & Such"] || !names["History: Ancient"] {
		t.Errorf("category names = %v, want the punctuated names intact", names)
	}
}

// A create referencing a category that does not exist must leave nothing
// behind: no media row, no partial links.
func TestCreateMedia_UnresolvedCategoryRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")

	media := &model.Media{
		UserID: user.ID,
		Title:  "The Hobbit",
		Type:   model.TypeBook,
		State:  model.StateAvailable,
	}
	err := db.CreateMedia(ctx, media, []string{fantasy.ID, "no-such-category"})
	if err == nil {
		t.Fatal("CreateMedia() with unresolved category should fail")
	}

	all, err := db.ListMediaWithCategories(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListMediaWithCategories() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("media rows after failed create = %d, want 0", len(all))
	}
}

func TestGetMediaWithCategories_NoLinks(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	media := createTestMedia(t, db, user.ID, "Dune")

	view, err := db.GetMediaWithCategories(context.Background(), media.ID)
	if err != nil {
		t.Fatalf("GetMediaWithCategories() error = %v", err)
	}
	if view.Categories == nil {
		t.Error("Categories is nil, want empty slice")
	}
	if len(view.Categories) != 0 {
		t.Errorf("got %d categories, want 0", len(view.Categories))
	}
}

func TestGetMediaWithCategories_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetMediaWithCategories(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetMediaWithCategories() error = %v, want ErrNotFound", err)
	}
}

func TestListMediaByState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	person := createTestPerson(t, db, user.ID, "Max", "Mustermann")

	available := createTestMedia(t, db, user.ID, "Dune")
	borrowed := createTestMedia(t, db, user.ID, "The Hobbit")
	createTestLoan(t, db, person.ID, borrowed.ID, model.DateOnly(borrowed.CreatedAt).AddDate(0, 1, 0))

	items, err := db.ListMediaByState(ctx, user.ID, model.StateAvailable)
	if err != nil {
		t.Fatalf("ListMediaByState() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != available.ID {
		t.Errorf("available list = %v, want only %s", items, available.ID)
	}

	items, err = db.ListMediaByState(ctx, user.ID, model.StateBorrowed)
	if err != nil {
		t.Fatalf("ListMediaByState() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != borrowed.ID {
		t.Errorf("borrowed list = %v, want only %s", items, borrowed.ID)
	}
}

func TestListFavoriteMedia(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	media := createTestMedia(t, db, user.ID, "Dune")
	createTestMedia(t, db, user.ID, "The Hobbit")

	if err := db.SetMediaFavorite(ctx, media.ID, true); err != nil {
		t.Fatalf("SetMediaFavorite() error = %v", err)
	}

	favorites, err := db.ListFavoriteMedia(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListFavoriteMedia() error = %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != media.ID {
		t.Errorf("favorites = %v, want only %s", favorites, media.ID)
	}
	if !favorites[0].Favorite {
		t.Error("Favorite flag not set on listed media")
	}
}

func TestGetMediaByISBN(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	media := &model.Media{
		UserID: user.ID,
		Title:  "Dune",
		Type:   model.TypeBook,
		State:  model.StateAvailable,
		ISBN:   "978-0441172719",
	}
	if err := db.CreateMedia(ctx, media, nil); err != nil {
		t.Fatalf("CreateMedia() error = %v", err)
	}

	found, err := db.GetMediaByISBN(ctx, user.ID, "978-0441172719")
	if err != nil {
		t.Fatalf("GetMediaByISBN() error = %v", err)
	}
	if found.ID != media.ID {
		t.Errorf("ID = %q, want %q", found.ID, media.ID)
	}

	_, err = db.GetMediaByISBN(ctx, user.ID, "000-0000000000")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetMediaByISBN() unknown: error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMedia_ReplacesCategorySet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")
	classic := createTestCategory(t, db, user.ID, "Classic")
	scifi := createTestCategory(t, db, user.ID, "Science Fiction")

	media := createTestMedia(t, db, user.ID, "The Hobbit", fantasy.ID, classic.ID)

	media.Title = "The Hobbit (revised)"
	if err := db.UpdateMedia(ctx, media, []string{scifi.ID}); err != nil {
		t.Fatalf("UpdateMedia() error = %v", err)
	}

	view, err := db.GetMediaWithCategories(ctx, media.ID)
	if err != nil {
		t.Fatalf("GetMediaWithCategories() error = %v", err)
	}
	if view.Title != "The Hobbit (revised)" {
		t.Errorf("Title = %q, want %q", view.Title, "The Hobbit (revised)")
	}
	if len(view.Categories) != 1 || view.Categories[0].Name != "Science Fiction" {
		t.Errorf("categories after update = %v, want only Science Fiction", view.Categories)
	}
}

// A failed category replacement must not lose the previous link set.
func TestUpdateMedia_UnresolvedCategoryKeepsOldLinks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")
	media := createTestMedia(t, db, user.ID, "The Hobbit", fantasy.ID)

	err := db.UpdateMedia(ctx, media, []string{"no-such-category"})
	if err == nil {
		t.Fatal("UpdateMedia() with unresolved category should fail")
	}

	view, err := db.GetMediaWithCategories(ctx, media.ID)
	if err != nil {
		t.Fatalf("GetMediaWithCategories() error = %v", err)
	}
	if len(view.Categories) != 1 || view.Categories[0].Name != "Fantasy" {
		t.Errorf("categories after failed update = %v, want only Fantasy", view.Categories)
	}
}

func TestLinkCategory_DuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")
	media := createTestMedia(t, db, user.ID, "The Hobbit")

	if err := db.LinkCategory(ctx, media.ID, fantasy.ID); err != nil {
		t.Fatalf("LinkCategory() error = %v", err)
	}

	err := db.LinkCategory(ctx, media.ID, fantasy.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("LinkCategory() duplicate: error = %v, want ErrConflict", err)
	}
}

func TestUnlinkCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	fantasy := createTestCategory(t, db, user.ID, "Fantasy")
	media := createTestMedia(t, db, user.ID, "The Hobbit", fantasy.ID)

	if err := db.UnlinkCategory(ctx, media.ID, fantasy.ID); err != nil {
		t.Fatalf("UnlinkCategory() error = %v", err)
	}

	err := db.UnlinkCategory(ctx, media.ID, fantasy.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UnlinkCategory() absent: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMedia(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	media := createTestMedia(t, db, user.ID, "The Hobbit")

	if err := db.DeleteMedia(ctx, media.ID); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}

	_, err := db.GetMediaByID(ctx, media.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetMediaByID() after delete: error = %v, want ErrNotFound", err)
	}
}
