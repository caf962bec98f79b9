package users

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// RoleSyncer keeps explicit role assignments aligned with the legacy
// integer role field. *rbac.Service implements it.
type RoleSyncer interface {
	AssignLegacyRole(ctx context.Context, userID int64, legacyRole int) error
}

// Service handles user management business logic.
type Service struct {
	repo   RepositoryPort
	roles  RoleSyncer
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleSyncer, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roles, audit: audit, logger: logger}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// CreateInput carries fields for user creation.
type CreateInput struct {
	Username string
	Password string
	Role     int
	Status   string
	Contact  string
}

// Create provisions a user and opportunistically mirrors the legacy role
// into user_roles. The mirroring is best effort: a failure is logged, not
// surfaced, and direct database edits bypass it entirely.
func (s *Service) Create(ctx context.Context, actorID int64, in CreateInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = "active"
	}
	if in.Role == 0 {
		in.Role = 4 // new users default to Clerk
	}
	user, err := s.repo.Create(ctx, User{
		Username: in.Username,
		Role:     in.Role,
		Status:   in.Status,
		Contact:  in.Contact,
	}, string(hash))
	if err != nil {
		return nil, err
	}
	s.syncLegacyRole(ctx, user)
	s.record(ctx, actorID, "user.create", user.ID)
	return user, nil
}

// UpdateInput carries fields for user updates. Password is optional.
type UpdateInput struct {
	Username string
	Password string
	Role     int
	Status   string
	Contact  string
}

// Update modifies a user and re-mirrors the legacy role.
func (s *Service) Update(ctx context.Context, actorID, id int64, in UpdateInput) (*User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username == "" {
		in.Username = current.Username
	}
	if in.Role == 0 {
		in.Role = current.Role
	}
	if in.Status == "" {
		in.Status = current.Status
	}
	if in.Contact == "" {
		in.Contact = current.Contact
	}
	user, err := s.repo.Update(ctx, User{
		ID:       id,
		Username: in.Username,
		Role:     in.Role,
		Status:   in.Status,
		Contact:  in.Contact,
	})
	if err != nil {
		return nil, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
			return nil, err
		}
	}
	s.syncLegacyRole(ctx, user)
	s.record(ctx, actorID, "user.update", user.ID)
	return user, nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.delete", id)
	return nil
}

// BulkDelete removes multiple users and returns the count removed.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.record(ctx, actorID, "user.delete", id)
	}
	return deleted, nil
}

func (s *Service) syncLegacyRole(ctx context.Context, user *User) {
	if s.roles == nil {
		return
	}
	if err := s.roles.AssignLegacyRole(ctx, user.ID, user.Role); err != nil && s.logger != nil {
		s.logger.Warn("sync user role", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
