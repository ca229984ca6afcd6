package share

import "fmt"

// Known OS-level connection failure codes. These are part of the contract with
// operations staff: each code carries its own guidance text and the two
// unexpected-network codes short-circuit validation entirely.
const (
	CodeBadNetworkPath     = 53
	CodeNetNameDeleted     = 64
	CodeBadPassword        = 86
	CodeCredentialConflict = 1219
	CodeLogonFailure       = 1326
)

var guidance = map[int]string{
	CodeBadNetworkPath:     "network path not found; verify the instrument host is on bionet and responding",
	CodeNetNameDeleted:     "network name deleted; the share dropped mid-session, typically a transient bionet fault",
	CodeBadPassword:        "bad password; re-encode the bionet password in the manager configuration",
	CodeCredentialConflict: "credential conflict; a session to this host already exists under different credentials",
	CodeLogonFailure:       "logon failure; bionet user account may be locked or the password expired",
}

// Guidance returns operator-facing advice for a known connection failure code.
func Guidance(code int) string {
	if text, ok := guidance[code]; ok {
		return text
	}
	return fmt.Sprintf("unrecognized connection failure code %d", code)
}

// IsUnexpectedNetworkError reports whether the code is one of the two codes
// treated as a transient network blip rather than a data problem. Validation
// must not proceed to file probing after one of these.
func IsUnexpectedNetworkError(code int) bool {
	return code == CodeBadNetworkPath || code == CodeNetNameDeleted
}

// ConnectError - a share connection failure with its OS-level code.
type ConnectError struct {
	Code int
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("share connect failed (code %d): %s: %v", e.Code, Guidance(e.Code), e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
