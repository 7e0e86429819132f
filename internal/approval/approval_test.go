package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_ProviderWins(t *testing.T) {
	r := Resolver{Provider: func(ctx context.Context, sessionID, message string) (bool, error) {
		return false, nil
	}, AutoApprove: true}

	require.False(t, r.Resolve(context.Background(), "sess-1", "delete everything?"))
}

func TestResolve_ProviderErrorFallsBackToAutoApprove(t *testing.T) {
	r := Resolver{Provider: func(ctx context.Context, sessionID, message string) (bool, error) {
		return false, errors.New("provider unavailable")
	}, AutoApprove: true}

	require.True(t, r.Resolve(context.Background(), "sess-1", "proceed?"))
}

func TestResolve_NoProviderUsesAutoApprove(t *testing.T) {
	r := Resolver{AutoApprove: true}
	require.True(t, r.Resolve(context.Background(), "sess-1", "proceed?"))
}

func TestResolve_FallsBackToEnvVar(t *testing.T) {
	t.Setenv(AutoApproveEnvVar, "1")
	r := Resolver{}
	require.True(t, r.Resolve(context.Background(), "sess-1", "proceed?"))
}

func TestResolve_EnvVarMustBeExactlyOne(t *testing.T) {
	t.Setenv(AutoApproveEnvVar, "true")
	r := Resolver{}
	require.False(t, r.Resolve(context.Background(), "sess-1", "proceed?"))
}

func TestResolve_DefaultsToFalse(t *testing.T) {
	r := Resolver{}
	require.False(t, r.Resolve(context.Background(), "sess-1", "proceed?"))
}
