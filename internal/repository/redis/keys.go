package redis

import "fmt"

const ns = "nfttix:v1"

func KeyToken(tokenID string) string {
	return fmt.Sprintf("%s:token:%s", ns, tokenID)
}

// KeyIdemPurchase scopes an Idempotency-Key to the category and the client
// that sent it, so two clients reusing a key never share an intent.
func KeyIdemPurchase(category, client, idemKey string) string {
	if client == "" {
		client = "anon"
	}
	return fmt.Sprintf("%s:idem:purchase:%s:%s:%s", ns, category, client, idemKey)
}

// KeyRateLimit is the prefix the limiter appends its subject to.
func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}
