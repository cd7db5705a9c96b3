package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

func Hash(pairingCode string) (string, error) {
	if len(pairingCode) < 6 {
		return "", fmt.Errorf("pairing code must be at least 6 characters")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(pairingCode), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pairing code: %w", err)
	}

	return string(hashedBytes), nil
}

func Compare(hashedCode, pairingCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(pairingCode))
}
