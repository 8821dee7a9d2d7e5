package grpc

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/rpc"
)

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	s.logger.Info(ctx, "Registration request")

	tokens, err := s.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", tokens.UserID)
	return toAuthResponse(tokens), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	tokens, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(tokens), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.AuthResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(tokens), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *rpc.ChangePasswordRequest) (*rpc.AuthResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := s.users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Password changed", "user_id", userID)
	return toAuthResponse(tokens), nil
}

func (s *GRPCServer) ChangeEmail(ctx context.Context, req *rpc.ChangeEmailRequest) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.ChangeEmail(ctx, userID, req.CurrentPassword, req.NewEmail); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Email changed", "user_id", userID)
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *rpc.Empty) (*rpc.Profile, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Profile{Email: user.Email, DisplayName: p.DisplayName, Locale: p.Locale, UpdatedAt: p.UpdatedAt}, nil
}

func (s *GRPCServer) UpsertProfile(ctx context.Context, req *rpc.UpsertProfileRequest) (*rpc.Profile, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := s.profiles.Upsert(ctx, userID, req.DisplayName, req.Locale)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Profile{Email: user.Email, DisplayName: p.DisplayName, Locale: p.Locale, UpdatedAt: p.UpdatedAt}, nil
}
