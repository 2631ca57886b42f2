package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/adampos/medialender/internal/model"
)

// newTestDB opens a fresh in-memory database for one test. Each test gets its
// own schema; t.Cleanup closes the pool when the test (or any subtest) ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestPerson(t *testing.T, db *DB, userID, firstName, lastName string) *model.Person {
	t.Helper()
	person := &model.Person{
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		Address:   "1 Test Street",
		Email:     firstName + "@example.com",
	}
	if err := db.CreatePerson(context.Background(), person); err != nil {
		t.Fatalf("failed to create test person: %v", err)
	}
	return person
}

func createTestCategory(t *testing.T, db *DB, userID, name string) *model.Category {
	t.Helper()
	category := &model.Category{UserID: userID, Name: name}
	if err := db.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

func createTestMedia(t *testing.T, db *DB, userID, title string, categoryIDs ...string) *model.Media {
	t.Helper()
	media := &model.Media{
		UserID: userID,
		Title:  title,
		Type:   model.TypeBook,
		State:  model.StateAvailable,
	}
	if err := db.CreateMedia(context.Background(), media, categoryIDs); err != nil {
		t.Fatalf("failed to create test media: %v", err)
	}
	return media
}

func createTestLoan(t *testing.T, db *DB, personID, mediaID string, dueDate time.Time) *model.Loan {
	t.Helper()
	loan := &model.Loan{
		PersonID:   personID,
		MediaID:    mediaID,
		BorrowedAt: time.Now(),
		DueDate:    dueDate,
	}
	if err := db.CreateBorrowing(context.Background(), loan); err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}
