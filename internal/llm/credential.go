package llm

import (
	"strings"

	"github.com/tbourn/go-roadmap-backend/internal/config"
)

// Credential is the API key a single model call will use.
type Credential struct {
	Key string
	// CallerSupplied is true when the key came from the request rather than
	// the server environment. Caller-supplied generations are not charged.
	CallerSupplied bool
}

// ResolveCredential picks the key for a call. A non-blank caller key always
// wins; otherwise the environment default is used. Blank keys and the
// placeholder value shipped in example env files resolve to ErrNoCredential.
func ResolveCredential(caller, envDefault string) (Credential, error) {
	if k := strings.TrimSpace(caller); k != "" {
		if k == config.UnsetAPIKey {
			return Credential{}, ErrNoCredential
		}
		return Credential{Key: k, CallerSupplied: true}, nil
	}
	k := strings.TrimSpace(envDefault)
	if k == "" || k == config.UnsetAPIKey {
		return Credential{}, ErrNoCredential
	}
	return Credential{Key: k}, nil
}
