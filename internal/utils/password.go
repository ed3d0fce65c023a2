package utils

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes credentials with bcrypt at a fixed cost.
type PasswordHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of plain. A cost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func (h PasswordHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares a bcrypt hash and a plain password.
func (PasswordHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
