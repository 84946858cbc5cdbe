package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/marketauth/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBRoleProfile is the active role-specific record. At most one row per user.
type DBRoleProfile struct {
	ID        uint                     `gorm:"primaryKey"`
	UserID    uint                     `gorm:"uniqueIndex"`
	Kind      string                   `gorm:"size:32"`
	Customer  *domain.CustomerProfile  `gorm:"type:text;serializer:json"`
	Moderator *domain.ModeratorProfile `gorm:"type:text;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DBRoleProfile) TableName() string {
	return "role_profiles"
}

// DBProfileArchive keeps superseded profiles for restore
type DBProfileArchive struct {
	ID         uint               `gorm:"primaryKey"`
	UserID     uint               `gorm:"index:idx_archive_lookup,priority:1"`
	Kind       string             `gorm:"size:32;index:idx_archive_lookup,priority:2"`
	Profile    domain.RoleProfile `gorm:"type:text;serializer:json"`
	ArchivedAt time.Time          `gorm:"index:idx_archive_lookup,priority:3"`
	ArchivedBy *uint
}

// TableName returns the table name for GORM
func (DBProfileArchive) TableName() string {
	return "role_profile_archives"
}

// ProfileRepositoryImpl implements domain.ProfileRepository using GORM transactions
type ProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) domain.ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

// InTx implements domain.RoleTransactor
func (r *ProfileRepositoryImpl) InTx(ctx context.Context, fn func(store domain.RoleStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRoleStore{tx: tx})
	})
}

// FindProfile implements domain.ProfileRepository
func (r *ProfileRepositoryImpl) FindProfile(ctx context.Context, userID uint) (*domain.RoleProfile, error) {
	return findProfile(r.db.WithContext(ctx), userID)
}

// ListArchives implements domain.ProfileRepository, newest first
func (r *ProfileRepositoryImpl) ListArchives(ctx context.Context, userID uint) ([]*domain.ProfileArchive, error) {
	var rows []DBProfileArchive
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("archived_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ProfileArchive, 0, len(rows))
	for i := range rows {
		out = append(out, archiveToDomain(&rows[i]))
	}
	return out, nil
}

// gormRoleStore binds the RoleStore writes to one transaction
type gormRoleStore struct {
	tx *gorm.DB
}

func (s *gormRoleStore) LockUser(ctx context.Context, userID uint) (*domain.User, error) {
	return findUserByID(s.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (s *gormRoleStore) UpdateRole(ctx context.Context, userID uint, role domain.Role) error {
	res := s.tx.WithContext(ctx).Model(&DBUser{}).Where("id = ?", userID).Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *gormRoleStore) FindProfile(ctx context.Context, userID uint) (*domain.RoleProfile, error) {
	return findProfile(s.tx.WithContext(ctx), userID)
}

func (s *gormRoleStore) CreateProfile(ctx context.Context, profile *domain.RoleProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	row := &DBRoleProfile{
		UserID:    profile.UserID,
		Kind:      string(profile.Kind),
		Customer:  profile.Customer,
		Moderator: profile.Moderator,
	}
	if err := s.tx.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	profile.CreatedAt = row.CreatedAt
	return nil
}

func (s *gormRoleStore) DeleteProfile(ctx context.Context, userID uint) error {
	return s.tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&DBRoleProfile{}).Error
}

func (s *gormRoleStore) CreateArchive(ctx context.Context, archive *domain.ProfileArchive) error {
	row := &DBProfileArchive{
		UserID:     archive.UserID,
		Kind:       string(archive.Kind),
		Profile:    archive.Profile,
		ArchivedAt: archive.ArchivedAt,
		ArchivedBy: archive.ArchivedBy,
	}
	if err := s.tx.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	archive.ID = row.ID
	return nil
}

func (s *gormRoleStore) LatestArchive(ctx context.Context, userID uint, kind domain.ProfileKind) (*domain.ProfileArchive, error) {
	var row DBProfileArchive
	err := s.tx.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		Order("archived_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrArchiveNotFound
		}
		return nil, err
	}
	return archiveToDomain(&row), nil
}

func (s *gormRoleStore) DeleteArchive(ctx context.Context, archiveID uint) error {
	return s.tx.WithContext(ctx).Delete(&DBProfileArchive{}, archiveID).Error
}

func findProfile(tx *gorm.DB, userID uint) (*domain.RoleProfile, error) {
	var row DBRoleProfile
	err := tx.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	return &domain.RoleProfile{
		UserID:    row.UserID,
		Kind:      domain.ProfileKind(row.Kind),
		Customer:  row.Customer,
		Moderator: row.Moderator,
		CreatedAt: row.CreatedAt,
	}, nil
}

func archiveToDomain(row *DBProfileArchive) *domain.ProfileArchive {
	return &domain.ProfileArchive{
		ID:         row.ID,
		UserID:     row.UserID,
		Kind:       domain.ProfileKind(row.Kind),
		Profile:    row.Profile,
		ArchivedAt: row.ArchivedAt,
		ArchivedBy: row.ArchivedBy,
	}
}
