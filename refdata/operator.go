package refdata

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// compositeName matches the "Display Name (LOGIN)" input shape.
var compositeName = regexp.MustCompile(`^(.*)\(([^)]+)\)\s*$`)

// GetOperator resolves a free-text username or name to a DMS user record.
// The ranked fallback order is a contract:
//  1. exact case-insensitive username match
//  2. unique username prefix match (logged as a fallback)
//  3. display-name prefix match: a unique non-obsolete match wins; among
//     multiple, a unique exact name match wins; anything else is ambiguous
//
// matchCount is the number of candidates the final pass considered: 1 on
// success, 0 when nothing matched, >1 on ambiguity. Ambiguous results still
// carry an email so a notification can reach someone, and a descriptive Name
// explaining the ambiguity.
func (c *Cache) GetOperator(ctx context.Context, usernameOrName string) (dms.OperatorInfo, int) {
	c.ensureOperators(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()

	input := strings.TrimSpace(usernameOrName)
	username := input
	displayName := ""
	if parts := compositeName.FindStringSubmatch(input); parts != nil {
		displayName = strings.TrimSpace(parts[1])
		username = strings.TrimSpace(parts[2])
	}

	// Pass 1: exact username.
	for _, op := range c.operators {
		if strings.EqualFold(op.Username, username) {
			return op, 1
		}
	}

	// Pass 2: unique username prefix.
	var prefixMatches []dms.OperatorInfo
	for _, op := range c.operators {
		if hasFoldPrefix(op.Username, username) {
			prefixMatches = append(prefixMatches, op)
		}
	}
	if len(prefixMatches) == 1 {
		log.WithFields(log.Fields{
			"event":    "operator_prefix_match",
			"input":    input,
			"username": prefixMatches[0].Username,
		}).Warn("matched operator by username prefix")
		return prefixMatches[0], 1
	}

	// Pass 3: display name. When the input was composite, match on its name
	// part, otherwise on the whole input.
	namePart := displayName
	if namePart == "" {
		namePart = input
	}
	var nameMatches []dms.OperatorInfo
	for _, op := range c.operators {
		if !op.Obsolete && hasFoldPrefix(op.Name, namePart) {
			nameMatches = append(nameMatches, op)
		}
	}
	switch len(nameMatches) {
	case 0:
		return dms.OperatorInfo{
			Name: fmt.Sprintf("operator %q not found; use a login name or a full name", input),
		}, 0
	case 1:
		return nameMatches[0], 1
	default:
		var exact []dms.OperatorInfo
		for _, op := range nameMatches {
			if strings.EqualFold(op.Name, namePart) {
				exact = append(exact, op)
			}
		}
		if len(exact) == 1 {
			return exact[0], 1
		}
		ambiguous := nameMatches[0]
		ambiguous.Name = fmt.Sprintf("ambiguous match for operator %q; %d candidates", input, len(nameMatches))
		return ambiguous, len(nameMatches)
	}
}

func hasFoldPrefix(s, prefix string) bool {
	if prefix == "" {
		return false
	}
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}
