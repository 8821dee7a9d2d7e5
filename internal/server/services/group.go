package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// shareCodeAttempts bounds retries when a generated share code collides.
const shareCodeAttempts = 5

var makeShareCode = common.MakeShareCode

// GroupService manages entry groups.
type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewGroupService constructs a GroupService.
func NewGroupService(db *sql.DB, m repomanager.RepositoryManager) *GroupService {
	return &GroupService{db: db, repomanager: m}
}

func (s *GroupService) List(ctx context.Context, userID string) ([]*models.Group, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	return s.repomanager.Groups(s.db).List(ctx, userID)
}

func groupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: group name must not be empty", common.ErrorValidation)
	}
	return name, nil
}

func checkGroupID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	return nil
}

// Create makes a new group with a fresh share code.
func (s *GroupService) Create(ctx context.Context, userID, name string) (*models.Group, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	name, err := groupName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Groups(s.db)
	for i := 0; i < shareCodeAttempts; i++ {
		code, err := makeShareCode()
		if err != nil {
			return nil, common.ErrorInternal
		}
		g, err := repo.Create(ctx, &models.Group{UserID: userID, Code: code, Name: name})
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error creating group: %w", err)
		}
		return g, nil
	}
	return nil, fmt.Errorf("error creating group: no free share code after %d attempts", shareCodeAttempts)
}

func (s *GroupService) Rename(ctx context.Context, userID, id, name string) (*models.Group, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	if err := checkGroupID(id); err != nil {
		return nil, err
	}
	name, err := groupName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Groups(s.db)
	if err := repo.Rename(ctx, userID, id, name); err != nil {
		return nil, err
	}
	return repo.Get(ctx, userID, id)
}

func (s *GroupService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return common.ErrMissingIdentifier
	}
	if err := checkGroupID(id); err != nil {
		return err
	}
	return s.repomanager.Groups(s.db).Delete(ctx, userID, id)
}

// SetMembers replaces the group's members. Every id must name one of the
// user's entries; duplicates are dropped keeping the first occurrence.
func (s *GroupService) SetMembers(ctx context.Context, userID, id string, entryIDs []string) (*models.Group, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	if err := checkGroupID(id); err != nil {
		return nil, err
	}

	var out *models.Group
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		groupRepo := s.repomanager.Groups(tx)
		if _, err := groupRepo.Get(ctx, userID, id); err != nil {
			return err
		}

		owned, err := s.repomanager.Entries(tx).List(ctx, userID, "")
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(owned))
		for _, e := range owned {
			known[e.ID] = struct{}{}
		}

		seen := make(map[string]struct{}, len(entryIDs))
		members := make([]string, 0, len(entryIDs))
		for _, eid := range entryIDs {
			if _, ok := known[eid]; !ok {
				return fmt.Errorf("entry %s: %w", eid, common.ErrorNotFound)
			}
			if _, dup := seen[eid]; dup {
				continue
			}
			seen[eid] = struct{}{}
			members = append(members, eid)
		}

		if err := groupRepo.ReplaceMembers(ctx, id, members); err != nil {
			return fmt.Errorf("error saving group members: %w", err)
		}
		out, err = groupRepo.Get(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
