package dispatch

import (
	"fmt"
	"net/http"
	"strings"

	"kilometers.ai/shop/internal/core/domain"
)

// VerbMode selects how request verbs are mapped onto HTTP methods
type VerbMode string

const (
	// VerbModeDistinct sends every verb as its own HTTP method
	VerbModeDistinct VerbMode = "distinct"
	// VerbModeTunnel sends post, put and delete as POST with an
	// X-HTTP-Method-Override header, for backends behind proxies that only
	// pass GET and POST
	VerbModeTunnel VerbMode = "tunnel"
)

const methodOverrideHeader = "X-HTTP-Method-Override"

func ParseVerbMode(s string) (VerbMode, error) {
	switch m := VerbMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", VerbModeDistinct:
		return VerbModeDistinct, nil
	case VerbModeTunnel:
		return VerbModeTunnel, nil
	default:
		return "", fmt.Errorf("%w: unknown verb mode %q", domain.ErrInvalidConfig, s)
	}
}

// method returns the HTTP method for verb and any headers the mode needs
func (m VerbMode) method(verb domain.Verb) (string, map[string]string) {
	method := verb.Method()
	if m != VerbModeTunnel || method == http.MethodGet {
		return method, nil
	}
	return http.MethodPost, map[string]string{methodOverrideHeader: method}
}
