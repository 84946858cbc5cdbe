package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/marketauth/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TempUserRepositoryImpl implements domain.TempUserRepository using GORM
type TempUserRepositoryImpl struct {
	db *gorm.DB
}

// DBTempUser is a pending signup row
type DBTempUser struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"column:password"`
	Role         string `gorm:"size:32"`
	Provider     string `gorm:"size:32"`
	OTPCodeHash  string `gorm:"column:otp_code_hash;size:64"`
	OTPExpiresAt time.Time
	OTPVerified  bool
	OTPPurpose   string `gorm:"size:32"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBTempUser) TableName() string {
	return "temp_users"
}

// NewTempUserRepository creates a new pending signup repository
func NewTempUserRepository(db *gorm.DB) domain.TempUserRepository {
	return &TempUserRepositoryImpl{db: db}
}

// Upsert implements domain.TempUserRepository
func (r *TempUserRepositoryImpl) Upsert(ctx context.Context, user *domain.TempUser) error {
	row := &DBTempUser{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Provider:     string(user.Provider),
		OTPCodeHash:  user.OTP.CodeHash,
		OTPExpiresAt: user.OTP.ExpiresAt,
		OTPVerified:  user.OTP.Verified,
		OTPPurpose:   string(user.OTP.Purpose),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		UpdateAll: true,
	}).Create(row).Error
}

// FindByEmail implements domain.TempUserRepository
func (r *TempUserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.TempUser, error) {
	var row DBTempUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoPendingSignup
		}
		return nil, err
	}

	return &domain.TempUser{
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		Provider:     domain.Provider(row.Provider),
		OTP: domain.OTPState{
			CodeHash:  row.OTPCodeHash,
			ExpiresAt: row.OTPExpiresAt,
			Verified:  row.OTPVerified,
			Purpose:   domain.OTPPurpose(row.OTPPurpose),
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Delete implements domain.TempUserRepository. Deleting a missing row is not an error.
func (r *TempUserRepositoryImpl) Delete(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&DBTempUser{}).Error
}
