package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

const MaxMediaTitleLength = 200

// MediaService manages the media catalog of an account. It also needs the
// category repository: every category referenced on create or update has to
// resolve and belong to the same account before anything is written.
type MediaService struct {
	media      repository.MediaRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewMediaService(
	media repository.MediaRepository,
	categories repository.CategoryRepository,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{media: media, categories: categories, logger: logger}
}

// MediaInput carries the writable fields of a media record.
type MediaInput struct {
	Title       string
	Producer    string
	Type        model.MediaType
	State       model.MediaState
	ReleaseYear *int
	Notes       string
	ISBN        string
	Favorite    bool
	CategoryIDs []string
}

func validateMediaInput(in MediaInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxMediaTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxMediaTitleLength))
	}
	if !in.Type.Valid() {
		return apperror.ValidationFailed("type", fmt.Sprintf("unknown media type %q", in.Type))
	}
	if in.State != "" && !in.State.Valid() {
		return apperror.ValidationFailed("mediaState", fmt.Sprintf("unknown media state %q", in.State))
	}
	if in.ReleaseYear != nil {
		year := *in.ReleaseYear
		if year < 1000 || year > time.Now().Year()+1 {
			return apperror.ValidationFailed("releaseYear", "release year is out of range")
		}
	}
	return nil
}

// resolveCategories checks that every referenced category exists and belongs
// to the account. One bad reference fails the whole operation before any row
// is written, so a media never ends up with a partial category set.
func (s *MediaService) resolveCategories(ctx context.Context, userID string, categoryIDs []string) error {
	seen := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		if id == "" {
			return apperror.ValidationFailed("categoryIds", "category ID must not be empty")
		}
		if seen[id] {
			return apperror.ValidationFailed("categoryIds", fmt.Sprintf("duplicate category ID %s", id))
		}
		seen[id] = true

		category, err := s.categories.GetCategoryByID(ctx, id)
		if err != nil {
			return err
		}
		if category.UserID != userID {
			return apperror.Forbidden("category belongs to another account")
		}
	}
	return nil
}

// Create adds a media item to the catalog. New media start AVAILABLE unless
// explicitly created as UNAVAILABLE; BORROWED is reserved for the loan engine.
func (s *MediaService) Create(ctx context.Context, userID string, in MediaInput) (*model.MediaWithCategories, error) {
	if err := validateMediaInput(in); err != nil {
		return nil, err
	}

	state := in.State
	if state == "" {
		state = model.StateAvailable
	}
	if state == model.StateBorrowed {
		return nil, apperror.ValidationFailed("mediaState", "media cannot be created as borrowed")
	}

	if err := s.resolveCategories(ctx, userID, in.CategoryIDs); err != nil {
		return nil, err
	}

	media := &model.Media{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Producer:    strings.TrimSpace(in.Producer),
		Type:        in.Type,
		State:       state,
		ReleaseYear: in.ReleaseYear,
		Notes:       strings.TrimSpace(in.Notes),
		ISBN:        strings.TrimSpace(in.ISBN),
		Favorite:    in.Favorite,
	}
	if err := s.media.CreateMedia(ctx, media, in.CategoryIDs); err != nil {
		s.logger.Error("failed to create media",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating media: %w", err)
	}

	s.logger.Info("media created",
		slog.String("id", media.ID),
		slog.String("userID", userID),
		slog.String("type", string(media.Type)),
	)
	return s.media.GetMediaWithCategories(ctx, media.ID)
}

// GetByID returns the media with its categories if it belongs to the calling
// account.
func (s *MediaService) GetByID(ctx context.Context, userID, id string) (*model.MediaWithCategories, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "media ID is required")
	}

	view, err := s.media.GetMediaWithCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, apperror.Forbidden("media belongs to another account")
	}
	return view, nil
}

func (s *MediaService) List(ctx context.Context, userID string) ([]model.MediaWithCategories, error) {
	return s.media.ListMediaWithCategories(ctx, userID)
}

func (s *MediaService) ListByState(ctx context.Context, userID string, state model.MediaState) ([]model.Media, error) {
	if !state.Valid() {
		return nil, apperror.ValidationFailed("mediaState", fmt.Sprintf("unknown media state %q", state))
	}
	return s.media.ListMediaByState(ctx, userID, state)
}

func (s *MediaService) ListByType(ctx context.Context, userID string, mediaType model.MediaType) ([]model.Media, error) {
	if !mediaType.Valid() {
		return nil, apperror.ValidationFailed("type", fmt.Sprintf("unknown media type %q", mediaType))
	}
	return s.media.ListMediaByType(ctx, userID, mediaType)
}

func (s *MediaService) ListFavorites(ctx context.Context, userID string) ([]model.Media, error) {
	return s.media.ListFavoriteMedia(ctx, userID)
}

func (s *MediaService) GetByISBN(ctx context.Context, userID, isbn string) (*model.Media, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, apperror.ValidationFailed("isbn", "ISBN is required")
	}
	return s.media.GetMediaByISBN(ctx, userID, isbn)
}

// Update rewrites the media and replaces its category set with the given one.
// Loan state is owned by the loan engine: an update may flip a media between
// AVAILABLE and UNAVAILABLE but never into or out of BORROWED.
func (s *MediaService) Update(ctx context.Context, userID, id string, in MediaInput) (*model.MediaWithCategories, error) {
	current, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateMediaInput(in); err != nil {
		return nil, err
	}

	state := in.State
	if state == "" {
		state = current.State
	}
	if state != current.State && (state == model.StateBorrowed || current.State == model.StateBorrowed) {
		return nil, apperror.Conflict("borrowed state is managed through loans")
	}

	if err := s.resolveCategories(ctx, userID, in.CategoryIDs); err != nil {
		return nil, err
	}

	media := current.Media
	media.Title = strings.TrimSpace(in.Title)
	media.Producer = strings.TrimSpace(in.Producer)
	media.Type = in.Type
	media.State = state
	media.ReleaseYear = in.ReleaseYear
	media.Notes = strings.TrimSpace(in.Notes)
	media.ISBN = strings.TrimSpace(in.ISBN)
	media.Favorite = in.Favorite

	if err := s.media.UpdateMedia(ctx, &media, in.CategoryIDs); err != nil {
		s.logger.Error("failed to update media",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating media: %w", err)
	}
	return s.media.GetMediaWithCategories(ctx, id)
}

// AssignCategory links one more category to the media. Assigning a category
// that is already linked is a conflict.
func (s *MediaService) AssignCategory(ctx context.Context, userID, mediaID, categoryID string) error {
	if _, err := s.GetByID(ctx, userID, mediaID); err != nil {
		return err
	}
	if err := s.resolveCategories(ctx, userID, []string{categoryID}); err != nil {
		return err
	}
	return s.media.LinkCategory(ctx, mediaID, categoryID)
}

// RemoveCategory unlinks a category from the media.
func (s *MediaService) RemoveCategory(ctx context.Context, userID, mediaID, categoryID string) error {
	if _, err := s.GetByID(ctx, userID, mediaID); err != nil {
		return err
	}
	if categoryID == "" {
		return apperror.ValidationFailed("categoryId", "category ID is required")
	}
	return s.media.UnlinkCategory(ctx, mediaID, categoryID)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *MediaService) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	view, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return false, err
	}

	next := !view.Favorite
	if err := s.media.SetMediaFavorite(ctx, id, next); err != nil {
		return false, fmt.Errorf("toggling favorite on media %s: %w", id, err)
	}
	return next, nil
}

func (s *MediaService) Delete(ctx context.Context, userID, id string) error {
	view, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if view.State == model.StateBorrowed {
		return apperror.Conflict("media is currently on loan")
	}

	if err := s.media.DeleteMedia(ctx, id); err != nil {
		s.logger.Error("failed to delete media",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting media: %w", err)
	}

	s.logger.Info("media deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}
