package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue is the placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

var redactionAllowlist = map[string]struct{}{
	"service":       {},
	"env":           {},
	"message":       {},
	"severity":      {},
	"timestamp":     {},
	"error":         {},
	"type":          {},
	"event":         {},
	"txhash":        {},
	"nonce":         {},
	"courseid":      {},
	"course":        {},
	"learner":       {},
	"authority":     {},
	"tokenmint":     {},
	"tokenissuer":   {},
	"paused":        {},
	"fields":        {},
	"rewardamount":  {},
	"requiredscore": {},
	"active":        {},
	"score":         {},
	"xpearned":      {},
	"tokensearned":  {},
	"mint":          {},
	"signer":        {},
	"decimals":      {},
	"supplycap":     {},
	"recipient":     {},
	"amount":        {},
	"totalminted":   {},
	"cooldown":      {},
	"owner":         {},
	"balance":       {},
}

// IsAllowlisted reports whether key is exempt from redaction.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// MaskField returns a slog.Attr that redacts value unless key is allowlisted.
// Empty values are emitted unchanged.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// EventAttrs renders event attributes as slog attributes, masking keys outside
// the allowlist.
func EventAttrs(attributes map[string]string) []any {
	out := make([]any, 0, len(attributes))
	for key, value := range attributes {
		out = append(out, MaskField(key, value))
	}
	return out
}
