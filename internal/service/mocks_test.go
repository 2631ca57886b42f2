package service

// Hand-written in-memory mocks for every repository interface. The services
// only see the interfaces, so these stand in for the SQLite layer and keep
// the business-rule tests free of database setup.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type mockPersonRepo struct {
	persons map[string]*model.Person
	nextID  int
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: make(map[string]*model.Person)}
}

func (m *mockPersonRepo) CreatePerson(_ context.Context, person *model.Person) error {
	m.nextID++
	person.ID = fmt.Sprintf("person-%d", m.nextID)
	person.CreatedAt = time.Now()
	stored := *person
	m.persons[person.ID] = &stored
	return nil
}

func (m *mockPersonRepo) GetPersonByID(_ context.Context, id string) (*model.Person, error) {
	person, ok := m.persons[id]
	if !ok {
		return nil, apperror.NotFound("person", id)
	}
	result := *person
	return &result, nil
}

func (m *mockPersonRepo) ListPersonsByUser(_ context.Context, userID string) ([]model.Person, error) {
	result := make([]model.Person, 0)
	for _, p := range m.persons {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPersonRepo) SearchPersonsByName(_ context.Context, userID, firstPrefix, lastPrefix string) ([]model.Person, error) {
	result := make([]model.Person, 0)
	for _, p := range m.persons {
		if p.UserID != userID {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(p.FirstName), strings.ToLower(firstPrefix)) {
			continue
		}
		if lastPrefix != "" && !strings.HasPrefix(strings.ToLower(p.LastName), strings.ToLower(lastPrefix)) {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPersonRepo) UpdatePerson(_ context.Context, person *model.Person) error {
	if _, ok := m.persons[person.ID]; !ok {
		return apperror.NotFound("person", person.ID)
	}
	stored := *person
	m.persons[person.ID] = &stored
	return nil
}

func (m *mockPersonRepo) DeletePerson(_ context.Context, id string) error {
	if _, ok := m.persons[id]; !ok {
		return apperror.NotFound("person", id)
	}
	delete(m.persons, id)
	return nil
}

type mockCategoryRepo struct {
	categories map[string]*model.Category
	nextID     int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*model.Category)}
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, category *model.Category) error {
	m.nextID++
	category.ID = fmt.Sprintf("category-%d", m.nextID)
	category.CreatedAt = time.Now()
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	result := *category
	return &result, nil
}

func (m *mockCategoryRepo) ListCategoriesByUser(_ context.Context, userID string) ([]model.Category, error) {
	result := make([]model.Category, 0)
	for _, c := range m.categories {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCategoryRepo) UpdateCategory(_ context.Context, category *model.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return apperror.NotFound("category", category.ID)
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) DeleteCategory(_ context.Context, id string) error {
	if _, ok := m.categories[id]; !ok {
		return apperror.NotFound("category", id)
	}
	delete(m.categories, id)
	return nil
}

// mockMediaRepo keeps a reference to the category mock so the
// with-categories views can resolve names the way the SQL join does.
type mockMediaRepo struct {
	media      map[string]*model.Media
	links      map[string][]string // mediaID → categoryIDs
	categories *mockCategoryRepo
	nextID     int
}

func newMockMediaRepo(categories *mockCategoryRepo) *mockMediaRepo {
	return &mockMediaRepo{
		media:      make(map[string]*model.Media),
		links:      make(map[string][]string),
		categories: categories,
	}
}

func (m *mockMediaRepo) CreateMedia(_ context.Context, media *model.Media, categoryIDs []string) error {
	for _, id := range categoryIDs {
		if _, ok := m.categories.categories[id]; !ok {
			return fmt.Errorf("mock: unknown category %s", id)
		}
	}
	m.nextID++
	media.ID = fmt.Sprintf("media-%d", m.nextID)
	media.CreatedAt = time.Now()
	stored := *media
	m.media[media.ID] = &stored
	m.links[media.ID] = append([]string(nil), categoryIDs...)
	return nil
}

func (m *mockMediaRepo) GetMediaByID(_ context.Context, id string) (*model.Media, error) {
	media, ok := m.media[id]
	if !ok {
		return nil, apperror.NotFound("media", id)
	}
	result := *media
	return &result, nil
}

func (m *mockMediaRepo) categoryRefs(mediaID string) []model.CategoryRef {
	refs := make([]model.CategoryRef, 0)
	for _, id := range m.links[mediaID] {
		if c, ok := m.categories.categories[id]; ok {
			refs = append(refs, model.CategoryRef{ID: c.ID, Name: c.Name})
		}
	}
	return refs
}

func (m *mockMediaRepo) GetMediaWithCategories(ctx context.Context, id string) (*model.MediaWithCategories, error) {
	media, err := m.GetMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.MediaWithCategories{Media: *media, Categories: m.categoryRefs(id)}, nil
}

func (m *mockMediaRepo) ListMediaWithCategories(_ context.Context, userID string) ([]model.MediaWithCategories, error) {
	result := make([]model.MediaWithCategories, 0)
	for id, media := range m.media {
		if media.UserID == userID {
			result = append(result, model.MediaWithCategories{Media: *media, Categories: m.categoryRefs(id)})
		}
	}
	return result, nil
}

func (m *mockMediaRepo) ListMediaByState(_ context.Context, userID string, state model.MediaState) ([]model.Media, error) {
	result := make([]model.Media, 0)
	for _, media := range m.media {
		if media.UserID == userID && media.State == state {
			result = append(result, *media)
		}
	}
	return result, nil
}

func (m *mockMediaRepo) ListMediaByType(_ context.Context, userID string, mediaType model.MediaType) ([]model.Media, error) {
	result := make([]model.Media, 0)
	for _, media := range m.media {
		if media.UserID == userID && media.Type == mediaType {
			result = append(result, *media)
		}
	}
	return result, nil
}

func (m *mockMediaRepo) ListFavoriteMedia(_ context.Context, userID string) ([]model.Media, error) {
	result := make([]model.Media, 0)
	for _, media := range m.media {
		if media.UserID == userID && media.Favorite {
			result = append(result, *media)
		}
	}
	return result, nil
}

func (m *mockMediaRepo) GetMediaByISBN(_ context.Context, userID, isbn string) (*model.Media, error) {
	for _, media := range m.media {
		if media.UserID == userID && media.ISBN == isbn {
			result := *media
			return &result, nil
		}
	}
	return nil, apperror.NotFound("media", isbn)
}

func (m *mockMediaRepo) UpdateMedia(_ context.Context, media *model.Media, categoryIDs []string) error {
	if _, ok := m.media[media.ID]; !ok {
		return apperror.NotFound("media", media.ID)
	}
	for _, id := range categoryIDs {
		if _, ok := m.categories.categories[id]; !ok {
			return fmt.Errorf("mock: unknown category %s", id)
		}
	}
	stored := *media
	m.media[media.ID] = &stored
	m.links[media.ID] = append([]string(nil), categoryIDs...)
	return nil
}

func (m *mockMediaRepo) SetMediaFavorite(_ context.Context, id string, favorite bool) error {
	media, ok := m.media[id]
	if !ok {
		return apperror.NotFound("media", id)
	}
	media.Favorite = favorite
	return nil
}

func (m *mockMediaRepo) DeleteMedia(_ context.Context, id string) error {
	if _, ok := m.media[id]; !ok {
		return apperror.NotFound("media", id)
	}
	delete(m.media, id)
	delete(m.links, id)
	return nil
}

func (m *mockMediaRepo) LinkCategory(_ context.Context, mediaID, categoryID string) error {
	for _, id := range m.links[mediaID] {
		if id == categoryID {
			return apperror.Conflict("category is already assigned")
		}
	}
	m.links[mediaID] = append(m.links[mediaID], categoryID)
	return nil
}

func (m *mockMediaRepo) UnlinkCategory(_ context.Context, mediaID, categoryID string) error {
	for i, id := range m.links[mediaID] {
		if id == categoryID {
			m.links[mediaID] = append(m.links[mediaID][:i], m.links[mediaID][i+1:]...)
			return nil
		}
	}
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "category is not associated with this media"}
}

// mockLoanRepo mimics the guarded state transitions of the SQLite layer,
// including the availability check on borrow.
type mockLoanRepo struct {
	loans  map[string]*model.Loan
	media  *mockMediaRepo
	nextID int
}

func newMockLoanRepo(media *mockMediaRepo) *mockLoanRepo {
	return &mockLoanRepo{loans: make(map[string]*model.Loan), media: media}
}

func (m *mockLoanRepo) CreateBorrowing(_ context.Context, loan *model.Loan) error {
	media, ok := m.media.media[loan.MediaID]
	if !ok || media.State != model.StateAvailable {
		return apperror.Conflict("media is not available for borrowing")
	}
	media.State = model.StateBorrowed

	m.nextID++
	loan.ID = fmt.Sprintf("loan-%d", m.nextID)
	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

func (m *mockLoanRepo) GetLoanByID(_ context.Context, id string) (*model.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, apperror.NotFound("loan", id)
	}
	result := *loan
	return &result, nil
}

func (m *mockLoanRepo) ReturnLoan(_ context.Context, loanID string, returnedAt time.Time) error {
	loan, ok := m.loans[loanID]
	if !ok {
		return apperror.NotFound("loan", loanID)
	}
	if loan.ReturnedAt != nil {
		return apperror.Conflict("loan is already returned")
	}
	t := returnedAt
	loan.ReturnedAt = &t
	if media, ok := m.media.media[loan.MediaID]; ok {
		media.State = model.StateAvailable
	}
	return nil
}

func (m *mockLoanRepo) loansWhere(userID string, keep func(*model.Loan) bool) []model.Loan {
	result := make([]model.Loan, 0)
	for _, loan := range m.loans {
		if media, ok := m.media.media[loan.MediaID]; !ok || media.UserID != userID {
			continue
		}
		if keep(loan) {
			result = append(result, *loan)
		}
	}
	return result
}

func (m *mockLoanRepo) ListLoansByUser(_ context.Context, userID string) ([]model.Loan, error) {
	return m.loansWhere(userID, func(*model.Loan) bool { return true }), nil
}

func (m *mockLoanRepo) ListActiveLoansByUser(_ context.Context, userID string) ([]model.Loan, error) {
	return m.loansWhere(userID, func(l *model.Loan) bool { return l.ReturnedAt == nil }), nil
}

func (m *mockLoanRepo) ListOverdueLoansByUser(_ context.Context, userID string, asOf time.Time) ([]model.Loan, error) {
	return m.loansWhere(userID, func(l *model.Loan) bool { return l.Overdue(asOf) }), nil
}

func (m *mockLoanRepo) ListDueReminders(_ context.Context, dueOn time.Time) ([]repository.DueReminder, error) {
	reminders := make([]repository.DueReminder, 0)
	for _, loan := range m.loans {
		if loan.ReturnedAt != nil || model.DateOnly(loan.DueDate).After(model.DateOnly(dueOn)) {
			continue
		}
		reminders = append(reminders, repository.DueReminder{LoanID: loan.ID})
	}
	return reminders, nil
}

// compile-time interface checks for the mocks
var (
	_ repository.UserRepository     = (*mockUserRepo)(nil)
	_ repository.PersonRepository   = (*mockPersonRepo)(nil)
	_ repository.CategoryRepository = (*mockCategoryRepo)(nil)
	_ repository.MediaRepository    = (*mockMediaRepo)(nil)
	_ repository.LoanRepository     = (*mockLoanRepo)(nil)
)

// fixture wires every mock and service together the way server.go wires the
// real implementations.
type fixture struct {
	users      *mockUserRepo
	persons    *mockPersonRepo
	categories *mockCategoryRepo
	media      *mockMediaRepo
	loans      *mockLoanRepo

	personSvc   *PersonService
	categorySvc *CategoryService
	mediaSvc    *MediaService
	loanSvc     *LoanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()

	users := newMockUserRepo()
	persons := newMockPersonRepo()
	categories := newMockCategoryRepo()
	media := newMockMediaRepo(categories)
	loans := newMockLoanRepo(media)

	return &fixture{
		users:       users,
		persons:     persons,
		categories:  categories,
		media:       media,
		loans:       loans,
		personSvc:   NewPersonService(persons, logger),
		categorySvc: NewCategoryService(categories, logger),
		mediaSvc:    NewMediaService(media, categories, logger),
		loanSvc:     NewLoanService(loans, persons, media, logger),
	}
}

func (f *fixture) addPerson(t *testing.T, userID, firstName, lastName string) *model.Person {
	t.Helper()
	person, err := f.personSvc.Create(context.Background(), userID, PersonInput{
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		t.Fatalf("creating fixture person: %v", err)
	}
	return person
}

func (f *fixture) addCategory(t *testing.T, userID, name string) *model.Category {
	t.Helper()
	category, err := f.categorySvc.Create(context.Background(), userID, name)
	if err != nil {
		t.Fatalf("creating fixture category: %v", err)
	}
	return category
}

func (f *fixture) addMedia(t *testing.T, userID, title string, categoryIDs ...string) *model.MediaWithCategories {
	t.Helper()
	view, err := f.mediaSvc.Create(context.Background(), userID, MediaInput{
		Title:       title,
		Type:        model.TypeBook,
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		t.Fatalf("creating fixture media: %v", err)
	}
	return view
}
