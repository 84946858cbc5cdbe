package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/marketauth/domain"
	"github.com/you/marketauth/internal/metrics"
)

// Role change outcomes
const (
	RoleUpdatedMessage   = "Role updated successfully"
	RoleUnchangedMessage = "User already has this role"
)

// DefaultRoleLockTTL bounds how long a crashed transition can block the next one
const DefaultRoleLockTTL = 30 * time.Second

// RoleDeps are the collaborators of RoleServiceImpl. Locker, Audit, Metrics and Logger are optional.
type RoleDeps struct {
	Users    domain.UserRepository
	Profiles domain.ProfileRepository
	Locker   domain.Locker
	Audit    domain.AuditLogger
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger
	LockTTL  time.Duration
}

// RoleServiceImpl implements domain.RoleService
type RoleServiceImpl struct {
	userRepo    domain.UserRepository
	profileRepo domain.ProfileRepository
	locker      domain.Locker
	audit       domain.AuditLogger
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	lockTTL     time.Duration
	now         func() time.Time
}

// NewRoleService creates a new role transition service
func NewRoleService(deps RoleDeps) *RoleServiceImpl {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = DefaultRoleLockTTL
	}
	return &RoleServiceImpl{
		userRepo:    deps.Users,
		profileRepo: deps.Profiles,
		locker:      deps.Locker,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		log:         log.WithField("component", "roles"),
		lockTTL:     ttl,
		now:         time.Now,
	}
}

var _ domain.RoleService = (*RoleServiceImpl)(nil)

// ChangeRole implements domain.RoleService. Admins are never demoted.
// The role update, archive of the outgoing profile and creation or restore of the
// incoming profile commit together or not at all.
func (s *RoleServiceImpl) ChangeRole(ctx context.Context, in domain.ChangeRoleInput) (*domain.RoleChangeResult, error) {
	if in.NewRole != domain.RoleUser && in.NewRole != domain.RoleModerator {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return nil, domain.ErrAdminRoleFixed
	}
	if user.Role == in.NewRole {
		return unchanged(user.Role), nil
	}

	if s.locker != nil {
		key := fmt.Sprintf("role-change:%d", in.UserID)
		token, ok, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire role lock: %w", err)
		}
		if !ok {
			return nil, domain.ErrRoleChangeInProgress
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				s.log.WithError(err).WithField("user_id", in.UserID).Warn("failed to release role lock")
			}
		}()
	}

	var result *domain.RoleChangeResult
	err = s.profileRepo.InTx(ctx, func(store domain.RoleStore) error {
		r, err := s.transition(ctx, store, in)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.metrics.RoleChanged(string(result.OldRole), string(result.NewRole))
		event := domain.NewAuditEvent(domain.RoleChangedEvent, in.UserID).
			WithEmail(user.Email).
			WithMetadata("old_role", string(result.OldRole)).
			WithMetadata("new_role", string(result.NewRole)).
			WithMetadata("restored", result.Restored)
		if in.ActorID != nil {
			event.WithMetadata("actor_id", *in.ActorID)
		}
		s.logEvent(ctx, event)
	}
	return result, nil
}

// transition runs inside the transaction with the user row locked
func (s *RoleServiceImpl) transition(ctx context.Context, store domain.RoleStore, in domain.ChangeRoleInput) (*domain.RoleChangeResult, error) {
	user, err := store.LockUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return nil, domain.ErrAdminRoleFixed
	}
	// another transition may have committed while we waited for the lock
	if user.Role == in.NewRole {
		return unchanged(user.Role), nil
	}
	oldRole := user.Role

	if err := store.UpdateRole(ctx, user.ID, in.NewRole); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	active, err := store.FindProfile(ctx, user.ID)
	switch {
	case err == nil:
		archive := &domain.ProfileArchive{
			UserID:     user.ID,
			Kind:       active.Kind,
			Profile:    *active,
			ArchivedAt: s.now(),
			ArchivedBy: in.ActorID,
		}
		if err := store.CreateArchive(ctx, archive); err != nil {
			return nil, fmt.Errorf("failed to archive %s profile: %w", active.Kind, err)
		}
		if err := store.DeleteProfile(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to remove %s profile: %w", active.Kind, err)
		}
	case errors.Is(err, domain.ErrProfileNotFound):
	default:
		return nil, fmt.Errorf("failed to load active profile: %w", err)
	}

	kind, _ := domain.ProfileKindFor(in.NewRole)
	restored := false

	var profile *domain.RoleProfile
	archive, err := store.LatestArchive(ctx, user.ID, kind)
	switch {
	case err == nil:
		p := archive.Profile
		p.UserID = user.ID
		p.Kind = kind
		profile = &p
		if err := store.DeleteArchive(ctx, archive.ID); err != nil {
			return nil, fmt.Errorf("failed to consume archive: %w", err)
		}
		restored = true
	case errors.Is(err, domain.ErrArchiveNotFound):
		profile = defaultProfile(user, kind)
	default:
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}

	applyRoleData(profile, in.RoleData)
	if err := store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create %s profile: %w", kind, err)
	}

	return &domain.RoleChangeResult{
		Message:  RoleUpdatedMessage,
		OldRole:  oldRole,
		NewRole:  in.NewRole,
		Changed:  true,
		Restored: restored,
	}, nil
}

// GetProfile implements domain.RoleService
func (s *RoleServiceImpl) GetProfile(ctx context.Context, userID uint) (*domain.RoleProfile, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.profileRepo.FindProfile(ctx, userID)
}

// ListArchives implements domain.RoleService
func (s *RoleServiceImpl) ListArchives(ctx context.Context, userID uint) ([]*domain.ProfileArchive, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.profileRepo.ListArchives(ctx, userID)
}

func unchanged(role domain.Role) *domain.RoleChangeResult {
	return &domain.RoleChangeResult{
		Message: RoleUnchangedMessage,
		OldRole: role,
		NewRole: role,
	}
}

func defaultProfile(user *domain.User, kind domain.ProfileKind) *domain.RoleProfile {
	p := &domain.RoleProfile{UserID: user.ID, Kind: kind}
	switch kind {
	case domain.ProfileModerator:
		p.Moderator = &domain.ModeratorProfile{
			StoreName:      user.Name + "'s Store",
			StoreAddress:   "Default Store Address",
			ApprovalStatus: domain.ApprovalPending,
		}
	default:
		p.Customer = &domain.CustomerProfile{
			ShippingAddress: "Default Address",
			Wishlist:        []string{},
		}
	}
	return p
}

// applyRoleData overlays non-empty fields that belong to the profile's kind
func applyRoleData(p *domain.RoleProfile, data *domain.RoleData) {
	if data == nil {
		return
	}
	switch {
	case p.Moderator != nil:
		if data.StoreName != "" {
			p.Moderator.StoreName = data.StoreName
		}
		if data.StoreAddress != "" {
			p.Moderator.StoreAddress = data.StoreAddress
		}
	case p.Customer != nil:
		if data.ShippingAddress != "" {
			p.Customer.ShippingAddress = data.ShippingAddress
		}
		if data.Wishlist != nil {
			p.Customer.Wishlist = append([]string(nil), data.Wishlist...)
		}
	}
}

func (s *RoleServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	event.WithClientContext(domain.ClientFromContext(ctx))
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("event", event.EventType).Debug("audit log failed")
	}
}
