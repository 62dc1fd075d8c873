package utils

import (
	"sync"
	"time"
)

// Revoked tokens are kept until they would have expired anyway.
var (
	revokedTokens = make(map[string]time.Time)
	revokedMu     sync.RWMutex
)

// RevokeToken blacklists a token on logout.
func RevokeToken(token string, expiresAt time.Time) {
	revokedMu.Lock()
	defer revokedMu.Unlock()

	now := time.Now()
	for t, exp := range revokedTokens {
		if now.After(exp) {
			delete(revokedTokens, t)
		}
	}
	revokedTokens[token] = expiresAt
}

func IsTokenRevoked(token string) bool {
	revokedMu.RLock()
	defer revokedMu.RUnlock()

	exp, ok := revokedTokens[token]
	return ok && time.Now().Before(exp)
}
