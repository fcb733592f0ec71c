package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticate checks a username and password against the stored bcrypt
// hash. Unknown users and wrong passwords return the same error.
func (s *Service) Authenticate(ctx context.Context, username string, password string) (domain.Actor, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrInvalidCredentials
		}
		return domain.Actor{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return domain.Actor{}, ErrInvalidCredentials
	}
	return domain.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	if _, err := s.authorize(ctx, CapManageUsers); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, input domain.UserInput) (domain.UserAccount, error) {
	if _, err := s.authorize(ctx, CapManageUsers); err != nil {
		return domain.UserAccount{}, err
	}
	if err := s.validateUserInput(&input, true); err != nil {
		return domain.UserAccount{}, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return domain.UserAccount{}, err
	}
	created, err := s.repo.CreateUser(ctx, domain.UserAccount{
		Username:  input.Username,
		Password:  hash,
		Role:      input.Role,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.UserAccount{}, domain.NewValidationError("username", "already exists")
		}
		return domain.UserAccount{}, err
	}

	s.logAudit(ctx, "user_create", "user", strconv.FormatInt(created.ID, 10), "username="+created.Username+",role="+created.Role)
	return *created, nil
}

// UpdateUser changes username and role. The password is only replaced when
// input.Password is non-empty.
func (s *Service) UpdateUser(ctx context.Context, id int64, input domain.UserInput) (domain.UserAccount, error) {
	if _, err := s.authorize(ctx, CapManageUsers); err != nil {
		return domain.UserAccount{}, err
	}
	if err := s.validateUserInput(&input, false); err != nil {
		return domain.UserAccount{}, err
	}

	account := domain.UserAccount{ID: id, Username: input.Username, Role: input.Role}
	if input.Password != "" {
		hash, err := hashPassword(input.Password)
		if err != nil {
			return domain.UserAccount{}, err
		}
		account.Password = hash
	}

	updated, err := s.repo.UpdateUser(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.UserAccount{}, domain.NewValidationError("username", "already exists")
		}
		return domain.UserAccount{}, err
	}

	s.logAudit(ctx, "user_update", "user", strconv.FormatInt(id, 10),
		fmt.Sprintf("username=%s,role=%s,password_changed=%t", updated.Username, updated.Role, input.Password != ""))
	return *updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	actor, err := s.authorize(ctx, CapManageUsers)
	if err != nil {
		return err
	}
	if actor.UserID == id {
		return domain.NewValidationError("id", "cannot delete your own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionKey(domain.Actor{UserID: id})); err != nil {
		s.logger.Warn("failed to drop session of deleted user", zap.Int64("user_id", id), zap.Error(err))
	}
	s.logAudit(ctx, "user_delete", "user", strconv.FormatInt(id, 10), "")
	return nil
}

func (s *Service) validateUserInput(input *domain.UserInput, passwordRequired bool) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))

	verr, err := s.collectValidation(*input)
	if err != nil {
		return err
	}
	if strings.IndexFunc(input.Username, unicode.IsSpace) >= 0 {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "username", Message: "must not contain spaces"})
	}
	if passwordRequired && input.Password == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "password", Message: "is required"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
