package redis

import "strings"

const (
	keyNamespace      = "lfbag"
	idempotencyPrefix = "idempotency"
	cartPrefix        = "cart"
	cartIDPrefix      = "cart_id"
	checkoutLockPref  = "checkout_lock"
)

// IdempotencyKey returns a namespaced key for idempotency storage.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// CartKey holds the serialized cart of a storefront session.
func (c *Client) CartKey(sessionID string) string {
	return buildKey(cartPrefix, sessionID)
}

// CartIDKey holds the backend cart identifier allocated for a session.
func (c *Client) CartIDKey(sessionID string) string {
	return buildKey(cartIDPrefix, sessionID)
}

// CheckoutLockKey guards a session against concurrent checkout submissions.
func (c *Client) CheckoutLockKey(sessionID string) string {
	return buildKey(checkoutLockPref, sessionID)
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
