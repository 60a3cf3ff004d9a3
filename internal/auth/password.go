package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost keeps a single verification above 100ms on commodity hardware.
const bcryptCost = 14

// PasswordHasher is the credential store: hashing happens only when the
// credential material changes, never on ordinary saves.
type PasswordHasher struct{}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

func (PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

// Compare reports whether the password matches the hash. It returns false on
// any failure, malformed hashes included.
func (PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
