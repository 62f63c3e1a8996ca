package model

import "time"

// OTPPurpose names the flow a one-time code was issued for.
type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposeLogin         OTPPurpose = "login"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// Valid reports whether p is one of the known purposes.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeRegistration, OTPPurposeLogin, OTPPurposePasswordReset:
		return true
	}
	return false
}

// OTP is a short-lived one-time code tied to a user. Consumed only ever flips
// from false to true.
type OTP struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index:idx_otp_lookup,priority:1"`
	Purpose   OTPPurpose `json:"purpose" gorm:"type:varchar(20);not null;index:idx_otp_lookup,priority:2"`
	Code      string     `json:"-" gorm:"size:6;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	Consumed  bool       `json:"consumed" gorm:"default:false;not null;index:idx_otp_lookup,priority:3"`
	CreatedAt time.Time  `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the code is past its expiry at now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
