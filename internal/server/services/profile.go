package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
)

const maxDisplayNameRunes = 80

// ProfileService reads and writes user profiles.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

// Get returns the user's profile. A user who never saved one gets an empty
// profile rather than NotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return &models.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Upsert(ctx context.Context, userID, displayName, locale string) (*models.Profile, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	displayName = strings.TrimSpace(displayName)
	if utf8.RuneCountInString(displayName) > maxDisplayNameRunes {
		return nil, fmt.Errorf("%w: display name longer than %d characters", common.ErrorValidation, maxDisplayNameRunes)
	}

	p, err := s.repomanager.Profiles(s.db).Upsert(ctx, &models.Profile{
		UserID:      userID,
		DisplayName: displayName,
		Locale:      strings.TrimSpace(locale),
	})
	if err != nil {
		return nil, fmt.Errorf("error saving profile: %w", err)
	}
	return p, nil
}
