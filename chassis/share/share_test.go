package share

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	for _, plain := range []string{"", "a", "bionet-secret-2026", "s3cr3t!with symbols%"} {
		encoded := EncodePassword(plain)
		require.Equal(t, plain, DecodePassword(encoded))
		if plain != "" {
			require.NotEqual(t, plain, encoded)
		}
	}
}

func TestGuidanceKnownCodes(t *testing.T) {
	for _, code := range []int{
		CodeBadNetworkPath, CodeNetNameDeleted, CodeBadPassword,
		CodeCredentialConflict, CodeLogonFailure,
	} {
		require.NotContains(t, Guidance(code), "unrecognized")
	}
	require.Contains(t, Guidance(9999), "unrecognized")
}

func TestIsUnexpectedNetworkError(t *testing.T) {
	require.True(t, IsUnexpectedNetworkError(CodeBadNetworkPath))
	require.True(t, IsUnexpectedNetworkError(CodeNetNameDeleted))
	require.False(t, IsUnexpectedNetworkError(CodeLogonFailure))
	require.False(t, IsUnexpectedNetworkError(CodeBadPassword))
	require.False(t, IsUnexpectedNetworkError(CodeCredentialConflict))
}

func TestConnectErrorUnwrap(t *testing.T) {
	inner := errors.New("session setup failed")
	err := &ConnectError{Code: CodeLogonFailure, Err: inner}
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "1326")
}

func TestCIFSLocalPath(t *testing.T) {
	cli := InitCIFSClient(Config{MountRoot: "/mnt/bionet"})
	require.Equal(t, "/mnt/bionet/orbi04.bionet/ProteomicsData",
		cli.LocalPath("Orbi04.bionet", "ProteomicsData"))
}
