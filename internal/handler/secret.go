package handler

import "crypto/subtle"

// SecretTokenHeader carries the shared webhook secret set via setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// SecretValidator authenticates inbound webhooks. A failed check is a hard
// gate: the request is rejected with 401 and never processed.
type SecretValidator struct {
	token string
}

func NewSecretValidator(token string) *SecretValidator {
	return &SecretValidator{token: token}
}

// Validate compares the presented token in constant time. Missing
// configuration and empty or malformed headers all fail closed.
func (v *SecretValidator) Validate(presented string) bool {
	if v == nil || v.token == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(v.token)) == 1
}
