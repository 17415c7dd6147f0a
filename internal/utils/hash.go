package utils

import "golang.org/x/crypto/bcrypt"

const passwordHashCost = bcrypt.DefaultCost

// HashPassword returns a bcrypt hash for a staff account password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(hash), err
}

// CheckPassword reports whether password matches the stored staff hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
