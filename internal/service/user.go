// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuswork/storeadmin-go/internal/apperr"
	"github.com/nimbuswork/storeadmin-go/internal/auth"
	"github.com/nimbuswork/storeadmin-go/internal/model"
	"github.com/nimbuswork/storeadmin-go/internal/perm"
	"github.com/nimbuswork/storeadmin-go/internal/store"
)

// UserService manages accounts, authentication and the user/role
// back-reference.
type UserService struct {
	store  *store.Store
	perms  *perm.Evaluator
	roles  *RoleService
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(s *store.Store, perms *perm.Evaluator, roles *RoleService, tokens *auth.TokenIssuer, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: s, perms: perms, roles: roles, tokens: tokens, logger: logger}
}

// CreateUserInput is the payload for Create.
type CreateUserInput struct {
	Name     string
	UserName string
	Email    string
	Password string
	Contact  string
	Role     *primitive.ObjectID
	IsAdmin  bool
}

// UpdateUserInput is the patch for Update; nil fields are untouched.
// Which fields actually apply depends on who is asking: users editing
// themselves are confined to profile fields, while staff with the
// users update permission may also change email, status and role.
// IsAdmin is admin-only.
type UpdateUserInput struct {
	Name     *string
	UserName *string
	Email    *string
	Contact  *string
	Image    *string
	Password *string
	Status   *string
	Role     **primitive.ObjectID
	IsAdmin  *bool
}

// TokenPair is an access/refresh token pair issued on login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Create registers a user. When a role is given the user is attached
// to the role's users list in the same transaction.
func (s *UserService) Create(ctx context.Context, actorID primitive.ObjectID, in CreateUserInput) (*model.User, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleUsers, model.ActionCreate); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Register is self sign-up: no permission gate, never admin, assigned
// the default customer role when one exists.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.IsAdmin = false
	if in.Role == nil {
		if role, err := s.roles.FindByName(ctx, "customer"); err == nil {
			in.Role = &role.ID
		}
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.BadRequest("Name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, apperr.BadRequest("Email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.BadRequest("Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now()
	user := &model.User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(in.Name),
		UserName:     strings.TrimSpace(in.UserName),
		Email:        email,
		PasswordHash: hash,
		Contact:      in.Contact,
		IsAdmin:      in.IsAdmin,
		Role:         in.Role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.store.Collection(store.ColUsers).InsertOne(sessCtx, user); err != nil {
			return err
		}
		if user.HasRole() {
			return s.roles.AttachUser(sessCtx, *user.Role, user.ID)
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Internal(fmt.Errorf("creating user: %w", err))
	}

	return user, nil
}

// Authenticate verifies credentials and issues a token pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	var user model.User
	err := s.store.Collection(store.ColUsers).FindOne(ctx,
		bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, apperr.Forbidden("Invalid credentials")
	}
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("loading user for login: %w", err))
	}

	if user.Status != "active" {
		return nil, nil, apperr.Forbidden("Account is disabled")
	}
	if ok, err := auth.CheckPassword(password, user.PasswordHash); err != nil || !ok {
		return nil, nil, apperr.Forbidden("Invalid credentials")
	}

	pair, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, apperr.Forbidden("Invalid refresh token")
	}

	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, apperr.Forbidden("Invalid refresh token")
	}
	if user.Status != "active" {
		return nil, apperr.Forbidden("Account is disabled")
	}

	return s.issueTokens(userID)
}

// Get loads a user. Users may read themselves; reading others needs
// the users read permission.
func (s *UserService) Get(ctx context.Context, actorID, userID primitive.ObjectID) (*model.User, error) {
	if actorID != userID {
		if err := s.perms.Require(ctx, actorID, model.ModuleUsers, model.ActionRead); err != nil {
			return nil, err
		}
	}
	return s.get(ctx, userID)
}

// List returns users, newest first.
func (s *UserService) List(ctx context.Context, actorID primitive.ObjectID) ([]model.User, error) {
	if err := s.perms.Require(ctx, actorID, model.ModuleUsers, model.ActionRead); err != nil {
		return nil, err
	}

	cursor, err := s.store.Collection(store.ColUsers).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing users: %w", err))
	}

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decoding users: %w", err))
	}
	return users, nil
}

// Update patches a user. A role change re-links the role/user
// back-reference: pulled from the old role's users, added to the new
// one's, in the same transaction as the document write.
func (s *UserService) Update(ctx context.Context, actorID, userID primitive.ObjectID, in UpdateUserInput) (*model.User, error) {
	isSelf := actorID == userID
	if !isSelf {
		if err := s.perms.Require(ctx, actorID, model.ModuleUsers, model.ActionUpdate); err != nil {
			return nil, err
		}
	}

	actorType, err := s.perms.RoleType(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	current, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	set, err := buildUserUpdate(in, isSelf, actorType)
	if err != nil {
		return nil, err
	}

	var newRole *primitive.ObjectID
	rerole := false
	if in.Role != nil {
		if isSelf && actorType != model.RoleTypeAdmin {
			return nil, apperr.Forbidden("Cannot change own role")
		}
		newRole = *in.Role
		rerole = !sameParent(current.Role, newRole)
		if rerole {
			if newRole != nil {
				if _, err := s.roles.get(ctx, *newRole); err != nil {
					return nil, err
				}
			}
			set["role"] = newRole
		}
	}

	var updated model.User
	err = s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		err := s.store.Collection(store.ColUsers).FindOneAndUpdate(sessCtx,
			bson.M{"_id": userID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("User not found")
		}
		if err != nil {
			return err
		}

		if rerole {
			if current.HasRole() {
				if err := s.roles.DetachUser(sessCtx, *current.Role, userID); err != nil {
					return err
				}
			}
			if newRole != nil {
				if err := s.roles.AttachUser(sessCtx, *newRole, userID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Internal(fmt.Errorf("updating user %s: %w", userID.Hex(), err))
	}

	return &updated, nil
}

// Delete removes a user, their cart and their role back-reference in
// one transaction.
func (s *UserService) Delete(ctx context.Context, actorID, userID primitive.ObjectID) error {
	if err := s.perms.Require(ctx, actorID, model.ModuleUsers, model.ActionDelete); err != nil {
		return err
	}
	if actorID == userID {
		return apperr.BadRequest("Cannot delete own account")
	}

	err := s.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var deleted model.User
		err := s.store.Collection(store.ColUsers).FindOneAndDelete(sessCtx,
			bson.M{"_id": userID}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("User not found")
		}
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}

		if deleted.HasRole() {
			if err := s.roles.DetachUser(sessCtx, *deleted.Role, userID); err != nil {
				return err
			}
		}

		if _, err := s.store.Collection(store.ColCarts).DeleteOne(sessCtx,
			bson.M{"user": userID}); err != nil {
			return fmt.Errorf("deleting user cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *UserService) issueTokens(userID primitive.ObjectID) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) get(ctx context.Context, userID primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := s.store.Collection(store.ColUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}
	return &user, nil
}

// buildUserUpdate translates the patch into a $set document, applying
// the field allow-lists. Profile fields are open to everyone allowed
// to update at all; email and status need staff standing; the admin
// flag only changes at an admin's hand.
func buildUserUpdate(in UpdateUserInput, isSelf bool, actorType model.RoleType) (bson.M, error) {
	set := bson.M{"updatedAt": time.Now()}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.BadRequest("Name is required")
		}
		set["name"] = strings.TrimSpace(*in.Name)
	}
	if in.UserName != nil {
		set["userName"] = strings.TrimSpace(*in.UserName)
	}
	if in.Contact != nil {
		set["contact"] = *in.Contact
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, apperr.BadRequest("Password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("hashing password: %w", err))
		}
		set["password"] = hash
	}

	staff := actorType == model.RoleTypeAdmin || (!isSelf && actorType == model.RoleTypeSupport)
	if in.Email != nil {
		if !staff && isSelf {
			return nil, apperr.Forbidden("Email changes require staff review")
		}
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, apperr.BadRequest("Email is required")
		}
		set["email"] = email
	}
	if in.Status != nil {
		if !staff {
			return nil, apperr.Forbidden("Cannot change account status")
		}
		set["status"] = *in.Status
	}
	if in.IsAdmin != nil {
		if actorType != model.RoleTypeAdmin {
			return nil, apperr.Forbidden("Only admins can grant admin")
		}
		set["isAdmin"] = *in.IsAdmin
	}

	return set, nil
}
