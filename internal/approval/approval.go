// Package approval implements the resolution cascade for the
// request_approval tool: an injected provider, falling back to a
// configured boolean, falling back to an environment variable. Modelled on
// the teacher's layered ApprovalChecker, reduced to the spec's simpler
// three-tier cascade (no allow/deny lists — there is exactly one approval
// gate, not a per-tool policy).
package approval

import (
	"context"
	"os"
)

// Provider is an injectable approval callback. A provider that errors falls
// back to the next cascade step, exactly as if it had not been configured.
type Provider func(ctx context.Context, sessionID, message string) (bool, error)

const AutoApproveEnvVar = "BROWSER_AUTO_APPROVE"

// Resolver resolves request_approval calls via provider → autoApprove
// configuration → BROWSER_AUTO_APPROVE env var.
type Resolver struct {
	Provider    Provider
	AutoApprove bool
}

// Resolve runs the cascade and always returns a boolean decision, never an
// error: a failing provider is treated as absent, not as a fatal condition.
func (r Resolver) Resolve(ctx context.Context, sessionID, message string) bool {
	if r.Provider != nil {
		if approved, err := r.Provider(ctx, sessionID, message); err == nil {
			return approved
		}
	}
	if r.AutoApprove {
		return true
	}
	return os.Getenv(AutoApproveEnvVar) == "1"
}
