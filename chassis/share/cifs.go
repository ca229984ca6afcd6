package share

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// CIFSClient authenticates bionet sessions with smbclient and reads the data
// through the autofs mount under MountRoot. The smbclient status strings are
// folded into the numeric code table so callers only ever see codes.
type CIFSClient struct {
	cfg       Config
	password  string
	connected bool
	current   string
}

// InitCIFSClient - ...
func InitCIFSClient(cfg Config) *CIFSClient {
	return &CIFSClient{
		cfg:      cfg,
		password: DecodePassword(cfg.EncodedPassword),
	}
}

// statusCodes maps smbclient NT_STATUS output to the OS code table. String
// matching here is the cross-platform shim; extend the table, never inline.
var statusCodes = []struct {
	substring string
	code      int
}{
	{"NT_STATUS_LOGON_FAILURE", CodeLogonFailure},
	{"NT_STATUS_WRONG_PASSWORD", CodeBadPassword},
	{"NT_STATUS_BAD_NETWORK_NAME", CodeBadNetworkPath},
	{"NT_STATUS_UNSUCCESSFUL", CodeNetNameDeleted},
	{"NT_STATUS_NETWORK_NAME_DELETED", CodeNetNameDeleted},
	{"NT_STATUS_CONNECTION_REFUSED", CodeBadNetworkPath},
	{"NT_STATUS_HOST_UNREACHABLE", CodeBadNetworkPath},
	{"NT_STATUS_IO_TIMEOUT", CodeBadNetworkPath},
	{"NT_STATUS_ACCESS_DENIED", CodeCredentialConflict},
}

// Connect - ...
func (cli *CIFSClient) Connect(ctx context.Context, host, shareName string) error {
	target := fmt.Sprintf("//%s/%s", host, shareName)
	cmd := exec.CommandContext(ctx, "smbclient", target,
		"-U", fmt.Sprintf("%s%%%s", cli.cfg.Username, cli.password),
		"-c", "exit")
	output, err := cmd.CombinedOutput()
	if err != nil {
		text := string(output)
		for _, entry := range statusCodes {
			if strings.Contains(text, entry.substring) {
				return &ConnectError{Code: entry.code, Err: err}
			}
		}
		return &ConnectError{Code: CodeBadNetworkPath, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(text))}
	}
	cli.connected = true
	cli.current = target
	log.WithFields(log.Fields{
		"event": "share_connected",
		"share": target,
	}).Debug("bionet session established")
	return nil
}

// Disconnect - ...
func (cli *CIFSClient) Disconnect() error {
	if !cli.connected {
		return nil
	}
	log.WithFields(log.Fields{
		"event": "share_disconnected",
		"share": cli.current,
	}).Debug("bionet session closed")
	cli.connected = false
	cli.current = ""
	return nil
}

// Connected - ...
func (cli *CIFSClient) Connected() bool {
	return cli.connected
}

// LocalPath - ...
func (cli *CIFSClient) LocalPath(host, shareName string) string {
	return filepath.Join(cli.cfg.MountRoot, strings.ToLower(host), shareName)
}

// RecoverCredentials - ...
func (cli *CIFSClient) RecoverCredentials(ctx context.Context) error {
	if cli.cfg.RecoverCommand == "" {
		return errors.New("no credential recover command configured")
	}
	parts := strings.Fields(cli.cfg.RecoverCommand)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("credential recover failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	log.WithFields(log.Fields{
		"event": "credential_recover",
	}).Info("credential subsystem restarted")
	return nil
}
