package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKnownWording(t *testing.T) {
	cl := DefaultClassifier()
	tests := []struct {
		text string
		want Outcome
	}{
		{"Logon failure: unknown user name or bad password", EncounteredLogonFailure},
		{"session setup failed: NT_STATUS_LOGON_FAILURE", EncounteredLogonFailure},
		{"open /mnt/bionet/x: permission denied", EncounteredLogonFailure},
		{"The network path was not found", EncounteredNetworkError},
		{"dial tcp 10.0.0.5:445: connection refused", EncounteredNetworkError},
		{"read tcp: i/o timeout", EncounteredNetworkError},
		{"no such file or directory", EncounteredError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, cl.Classify(errors.New(tt.text)), tt.text)
	}
}

func TestClassifyNilIsSuccess(t *testing.T) {
	require.Equal(t, Success, DefaultClassifier().Classify(nil))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	cl := NewClassifier([]Rule{
		{"network", EncounteredNetworkError},
		{"network logon", EncounteredLogonFailure},
	})
	require.Equal(t, EncounteredNetworkError, cl.Classify(errors.New("network logon problem")))
}

func TestOutcomeStrings(t *testing.T) {
	require.Equal(t, "success", Success.String())
	require.Equal(t, "encountered_network_error", EncounteredNetworkError.String())
	require.Equal(t, "unknown", Outcome(99).String())
	require.True(t, Success.Committable())
	require.True(t, Continue.Committable())
	require.False(t, SizeChanged.Committable())
	require.False(t, NoOperator.Committable())
}
