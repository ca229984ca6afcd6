package share

import "context"

// Config - unified configuration for remote share access.
type Config struct {
	Username        string
	EncodedPassword string
	// MountRoot is where bionet shares appear in the local tree, e.g.
	// /mnt/bionet/<host>/<share>.
	MountRoot string
	// RecoverCommand restarts the credential helper when logon failures
	// appear mid-run; empty disables self-healing.
	RecoverCommand string
}

// Client interface for credentialed share interaction.
type Client interface {
	// Connect authenticates a session against host/shareName. The returned
	// error is a *ConnectError when the failure maps to a known OS code.
	Connect(ctx context.Context, host, shareName string) error
	// Disconnect tears down the session; safe to call when not connected.
	Disconnect() error
	// Connected reports whether a session is currently established.
	Connected() bool
	// LocalPath maps host/shareName to the local mount point.
	LocalPath(host, shareName string) string
	// RecoverCredentials restarts the credential subsystem. Callers invoke it
	// at most once per run.
	RecoverCredentials(ctx context.Context) error
}
