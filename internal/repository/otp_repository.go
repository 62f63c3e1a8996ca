package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"opticart/internal/model"
)

// OTPRepository defines persistence operations for the OTP ledger.
type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTP) error
	// FindActive returns the newest unconsumed code matching (user, purpose, code),
	// regardless of expiry.
	FindActive(ctx context.Context, userID uint, purpose model.OTPPurpose, code string) (*model.OTP, error)
	// Consume flips consumed to true. It reports false when another caller got there first.
	Consume(ctx context.Context, id uint) (bool, error)
	// ConsumeOutstanding consumes every unconsumed code of (user, purpose).
	ConsumeOutstanding(ctx context.Context, userID uint, purpose model.OTPPurpose) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository creates a new OTP repository.
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.OTP) error {
	return r.db.WithContext(ctx).Omit("User").Create(otp).Error
}

func (r *otpRepository) FindActive(ctx context.Context, userID uint, purpose model.OTPPurpose, code string) (*model.OTP, error) {
	var otp model.OTP
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND code = ? AND consumed = ?", userID, purpose, code, false).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) Consume(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.OTP{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *otpRepository) ConsumeOutstanding(ctx context.Context, userID uint, purpose model.OTPPurpose) error {
	return r.db.WithContext(ctx).Model(&model.OTP{}).
		Where("user_id = ? AND purpose = ? AND consumed = ?", userID, purpose, false).
		Update("consumed", true).Error
}

func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.OTP{})
	return res.RowsAffected, res.Error
}
