// Package services contains application services for the Daybook client.
// This file defines the authentication service: register, login, session
// restore from the stored refresh token, account changes, and the per-device
// session identifier.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/google/uuid"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register / Login: authenticate against the server and remember the
//     email and refresh token locally.
//   - Restore: resume the previous session from the stored refresh token.
//   - Logout: forget the tokens; the session id and last email stay.
//   - SessionID: a random id generated once per local database.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Restore(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, current, next string) error
	ChangeEmail(ctx context.Context, current, newEmail string) error
	Profile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, displayName, locale string) (*models.Profile, error)
	SessionID(ctx context.Context) (string, error)
	LastEmail(ctx context.Context) string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	logger logging.Logger
}

// NewAuthService binds the service to the API client and the local database.
// Every token pair the client receives from now on is persisted.
func NewAuthService(c client.Client, db *sql.DB, l logging.Logger) AuthService {
	a := &authService{client: c, db: db, logger: l.With("module", "auth_service")}
	c.OnTokens(a.persistRefreshToken)
	return a
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) persistRefreshToken(token string) {
	ctx := context.Background()
	if err := a.getMetadataRepo().Set(ctx, metadata.KeyRefreshToken, token); err != nil {
		a.logger.Error(ctx, "failed to persist refresh token", "error", err)
	}
}

func (a *authService) Register(ctx context.Context, email, password string) error {
	if _, err := a.client.Register(ctx, email, password); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return a.getMetadataRepo().Set(ctx, metadata.KeyEmail, email)
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	if _, err := a.client.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return a.getMetadataRepo().Set(ctx, metadata.KeyEmail, email)
}

// Restore returns client.ErrLocalDataNotAvailable when no refresh token is
// stored. A token the server rejects is removed.
func (a *authService) Restore(ctx context.Context) error {
	repo := a.getMetadataRepo()

	token, err := repo.Get(ctx, metadata.KeyRefreshToken)
	if errors.Is(err, common.ErrorNotFound) || token == "" {
		return client.ErrLocalDataNotAvailable
	}
	if err != nil {
		return err
	}

	if _, err := a.client.Restore(ctx, token); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrRefreshTokenExpired) {
			if derr := repo.Delete(ctx, metadata.KeyRefreshToken); derr != nil {
				a.logger.Warn(ctx, "failed to drop rejected refresh token", "error", derr)
			}
		}
		return fmt.Errorf("restore error: %w", err)
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	return a.getMetadataRepo().Delete(ctx, metadata.KeyRefreshToken)
}

func (a *authService) ChangePassword(ctx context.Context, current, next string) error {
	return a.client.ChangePassword(ctx, current, next)
}

func (a *authService) ChangeEmail(ctx context.Context, current, newEmail string) error {
	if err := a.client.ChangeEmail(ctx, current, newEmail); err != nil {
		return err
	}
	return a.getMetadataRepo().Set(ctx, metadata.KeyEmail, newEmail)
}

func (a *authService) Profile(ctx context.Context) (*models.Profile, error) {
	return a.client.GetProfile(ctx)
}

func (a *authService) UpdateProfile(ctx context.Context, displayName, locale string) (*models.Profile, error) {
	return a.client.UpsertProfile(ctx, displayName, locale)
}

// SessionID returns the stored session id, creating it on first use.
func (a *authService) SessionID(ctx context.Context) (string, error) {
	id, err := a.getMetadataRepo().GetOrInit(ctx, metadata.KeySessionID, uuid.NewString)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// LastEmail is the email of the last successful login, or "".
func (a *authService) LastEmail(ctx context.Context) string {
	v, err := a.getMetadataRepo().Get(ctx, metadata.KeyEmail)
	if err != nil {
		return ""
	}
	return v
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
