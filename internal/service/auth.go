package service

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

const invalidCredentials = "Invalid username or password."

// AuthService issues and rotates tokens.
type AuthService struct {
	Deps
	Hasher     utils.PasswordHasher
	Tokens     utils.TokenSettings
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// LoginResponse is the payload returned by login and refresh.
type LoginResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	Expiration   time.Time `json:"expiration"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
}

// Profile is the authenticated user as seen by GET /api/me.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	DriverID    *uuid.UUID `json:"driverId,omitempty"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
}

// Login checks username and password and returns a fresh token pair.
// Unknown users, wrong passwords and inactive accounts all get the same
// message.
func (s *AuthService) Login(ctx context.Context, username, password string) (Result[LoginResponse], error) {
	username = strings.TrimSpace(username)
	var v violations
	v.required(username, "Username")
	v.required(password, "Password")
	if !v.empty() {
		return fail[LoginResponse](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	users, err := repository.Repo[model.User](uow).Find(ctx, sq.Eq{"username": username})
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	if len(users) == 0 || !users[0].IsActive || !s.Hasher.Verify(users[0].PasswordHash, password) {
		s.logger().Info("login rejected", logger.String("username", username))
		return fail[LoginResponse](ErrUnauthorized, invalidCredentials), nil
	}
	return s.issue(ctx, uow, users[0])
}

// Refresh exchanges a usable refresh token for a new pair. The presented
// token is revoked in the same save that stores its replacement.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Result[LoginResponse], error) {
	if strings.TrimSpace(raw) == "" {
		return fail[LoginResponse](ErrValidation, "Refresh token is required."), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	stored, err := s.findToken(ctx, uow, raw)
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	now := s.now()
	if stored == nil || !stored.Usable(now) {
		return fail[LoginResponse](ErrUnauthorized, "Refresh token is invalid or expired."), nil
	}
	user, err := repository.Repo[model.User](uow).GetByID(ctx, stored.UserID)
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	if user == nil || !user.IsActive {
		return fail[LoginResponse](ErrUnauthorized, "Refresh token is invalid or expired."), nil
	}
	stored.RevokedAt = &now
	repository.Repo[model.RefreshToken](uow).Update(stored)
	return s.issue(ctx, uow, user)
}

// Logout revokes raw. Revoking an unknown or already revoked token is not
// an error.
func (s *AuthService) Logout(ctx context.Context, raw string) (Result[bool], error) {
	if strings.TrimSpace(raw) == "" {
		return fail[bool](ErrValidation, "Refresh token is required."), nil
	}
	uow := s.Store.UnitOfWork(ctx)
	stored, err := s.findToken(ctx, uow, raw)
	if err != nil {
		return Result[bool]{}, err
	}
	if stored == nil || stored.RevokedAt != nil {
		return ok(true), nil
	}
	now := s.now()
	stored.RevokedAt = &now
	repository.Repo[model.RefreshToken](uow).Update(stored)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}

// Me returns the profile of userID with its roles and permission codes.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (Result[Profile], error) {
	uow := s.Store.UnitOfWork(ctx)
	user, err := repository.Repo[model.User](uow).GetByID(ctx, userID)
	if err != nil {
		return Result[Profile]{}, err
	}
	if user == nil || !user.IsActive {
		return notFound[Profile]("User"), nil
	}
	roles, err := activeRoles(ctx, uow, userID)
	if err != nil {
		return Result[Profile]{}, err
	}
	codes := []string{}
	if len(roles) > 0 {
		perms, err := grantedPermissions(ctx, uow, roleIDs(roles))
		if err != nil {
			return Result[Profile]{}, err
		}
		for _, p := range perms {
			codes = append(codes, p.Code)
		}
	}
	p := Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		CustomerID:  user.CustomerID,
		Roles:       roleCodes(roles),
		Permissions: codes,
	}
	driver, err := driverForUser(ctx, uow, userID)
	if err != nil {
		return Result[Profile]{}, err
	}
	if driver != nil {
		p.DriverID = &driver.ID
	}
	return ok(p), nil
}

func (s *AuthService) findToken(ctx context.Context, uow *repository.UnitOfWork, raw string) (*model.RefreshToken, error) {
	found, err := repository.Repo[model.RefreshToken](uow).Find(ctx, sq.Eq{"token_hash": utils.HashRefreshRaw(raw)})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// issue signs an access token, stages a refresh token and saves everything
// staged on uow so far.
func (s *AuthService) issue(ctx context.Context, uow *repository.UnitOfWork, user *model.User) (Result[LoginResponse], error) {
	roles, err := activeRoles(ctx, uow, user.ID)
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	codes := roleCodes(roles)
	now := s.now()

	access, err := utils.NewAccessToken(s.Tokens, utils.Identity{UserID: user.ID, Username: user.Username, Roles: codes}, now, s.AccessTTL)
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	refresh, err := utils.NewRefreshToken(now, s.RefreshTTL)
	if err != nil {
		return Result[LoginResponse]{}, err
	}
	repository.Repo[model.RefreshToken](uow).Add(&model.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshRaw(refresh.Raw),
		ExpiresAt: refresh.Exp,
	})
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[LoginResponse]{}, err
	}

	return ok(LoginResponse{
		Token:        access.Token,
		RefreshToken: refresh.Raw,
		Expiration:   access.Exp,
		Username:     user.Username,
		Email:        user.Email,
		Roles:        codes,
	}), nil
}
