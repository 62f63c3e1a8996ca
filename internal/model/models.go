package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&OTP{},
		&BlacklistedToken{},
		&Product{},
		&ProductImage{},
		&Review{},
		&Order{},
		&OrderItem{},
		&Cart{},
		&CartItem{},
	}
}
