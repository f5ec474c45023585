package ai

import "strings"

// transientMarkers is matched against error text to decide whether the
// fallback client may advance to the next model.
var transientMarkers = []string{
	"overloaded",
	"unavailable",
	"503",
	"429",
	"resource exhausted",
	"rate limit",
	"connection reset",
	"timeout",
	"timed out",
	"deadline exceeded",
	"dns",
	"no such host",
	"network",
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

type ErrorCategory string

const (
	ErrOverloaded  ErrorCategory = "overloaded"
	ErrRateLimited ErrorCategory = "rate_limited"
	ErrNetwork     ErrorCategory = "network"
	ErrAuth        ErrorCategory = "auth"
	ErrUnknown     ErrorCategory = "unknown"
)

// Categorize maps an upstream error to a user-presentable category.
// Raw error text is never shown to the client.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return ErrUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "503"):
		return ErrOverloaded
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "quota"):
		return ErrRateLimited
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "connection") ||
		strings.Contains(msg, "dns") || strings.Contains(msg, "no such host") || strings.Contains(msg, "network"):
		return ErrNetwork
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission") ||
		strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return ErrAuth
	default:
		return ErrUnknown
	}
}

func UserMessage(cat ErrorCategory) string {
	switch cat {
	case ErrOverloaded:
		return "The research model is overloaded right now. Please try again in a moment."
	case ErrRateLimited:
		return "You're sending requests a bit too quickly. Please wait a moment and try again."
	case ErrNetwork:
		return "We couldn't reach the research model. Please check back shortly."
	case ErrAuth:
		return "The research service is misconfigured. Please contact support."
	default:
		return "Something went wrong while processing your request. Please try again."
	}
}
