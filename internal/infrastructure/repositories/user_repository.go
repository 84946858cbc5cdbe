package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/marketauth/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"column:password"`
	Image        string
	Role         string `gorm:"index;size:32"`
	Provider     string `gorm:"size:32"`
	IsVerified   bool   `gorm:"index"`
	OTPCodeHash  string `gorm:"column:otp_code_hash;size:64"`
	OTPExpiresAt *time.Time
	OTPVerified  bool
	OTPPurpose   string    `gorm:"size:32"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := userToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return userToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return findUserByID(r.db.WithContext(ctx), id)
}

func findUserByID(tx *gorm.DB, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := tx.Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return userToDomain(&dbUser), nil
}

// Update implements domain.UserRepository. Every column is written, including cleared OTP state.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	dbUser := userToDB(user)
	res := r.db.WithContext(ctx).
		Model(&DBUser{ID: user.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(dbUser)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete implements domain.UserRepository. Role profiles and their archives go with the user.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&DBUser{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		if err := tx.Where("user_id = ?", id).Delete(&DBRoleProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&DBProfileArchive{}).Error
	})
}

// List implements domain.UserRepository
func (r *UserRepositoryImpl) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	q := r.db.WithContext(ctx).Order("id")
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []DBUser
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, userToDomain(&rows[i]))
	}
	return users, nil
}

// ExistsWithRole implements domain.UserRepository
func (r *UserRepositoryImpl) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DBUser{}).Where("role = ?", string(role)).Count(&count).Error
	return count > 0, err
}

func userToDB(user *domain.User) *DBUser {
	dbUser := &DBUser{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Image:        user.Image,
		Role:         string(user.Role),
		Provider:     string(user.Provider),
		IsVerified:   user.IsVerified,
		CreatedAt:    user.CreatedAt,
	}
	if user.OTP != nil {
		exp := user.OTP.ExpiresAt
		dbUser.OTPCodeHash = user.OTP.CodeHash
		dbUser.OTPExpiresAt = &exp
		dbUser.OTPVerified = user.OTP.Verified
		dbUser.OTPPurpose = string(user.OTP.Purpose)
	}
	return dbUser
}

func userToDomain(dbUser *DBUser) *domain.User {
	user := &domain.User{
		ID:           dbUser.ID,
		Name:         dbUser.Name,
		Email:        dbUser.Email,
		PasswordHash: dbUser.PasswordHash,
		Image:        dbUser.Image,
		Role:         domain.Role(dbUser.Role),
		Provider:     domain.Provider(dbUser.Provider),
		IsVerified:   dbUser.IsVerified,
		CreatedAt:    dbUser.CreatedAt,
		UpdatedAt:    dbUser.UpdatedAt,
	}
	if dbUser.OTPCodeHash != "" && dbUser.OTPExpiresAt != nil {
		user.OTP = &domain.OTPState{
			CodeHash:  dbUser.OTPCodeHash,
			ExpiresAt: *dbUser.OTPExpiresAt,
			Verified:  dbUser.OTPVerified,
			Purpose:   domain.OTPPurpose(dbUser.OTPPurpose),
		}
	}
	return user
}
