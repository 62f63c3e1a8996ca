package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"opticart/internal/model"
)

// OTPLength is the number of digits in a one-time code.
const OTPLength = 6

var otpMax = big.NewInt(1_000_000)

// GenerateOTP returns a cryptographically random 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsAdmin is the capability check for admin-only operations.
func IsAdmin(user *model.User) bool {
	return user != nil && user.IsAdmin
}
