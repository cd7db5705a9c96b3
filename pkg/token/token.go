// Package token inspects the sync access token issued by the remote
// service at enrollment. The engine does not verify signatures (it
// holds no secret); it only reads claims to know when to warn about an
// expiring token before starting a run.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func ExpiresAt(raw string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access token carries no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

func Expired(raw string, now time.Time) bool {
	expiresAt, err := ExpiresAt(raw)
	if err != nil {
		return false
	}
	return now.After(expiresAt)
}
