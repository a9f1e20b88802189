// pkg/unit/version.go
package unit

import (
	"context"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ProbeVersion runs the given version command (e.g. "tool --version") and
// returns its trimmed combined output, or "" when the tool is not invocable.
// Adapters use it both as the dependency probe and as the Version source.
func ProbeVersion(ctx context.Context, argv ...string) string {
	if len(argv) == 0 {
		return ""
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// MeetsMinimum reports whether a tool's reported version satisfies the given
// minimum. Version strings that do not parse as semver are treated as
// satisfying: the gate is advisory and must not block tools with exotic
// version formats.
func MeetsMinimum(reported, minimum string) bool {
	if minimum == "" {
		return true
	}
	v, err := semver.NewVersion(extractVersion(reported))
	if err != nil {
		return true
	}
	c, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return true
	}
	return c.Check(v)
}

// extractVersion pulls the first semver-looking token out of tool output like
// "wafw00f 2.2.0" or "v1.3".
func extractVersion(s string) string {
	for _, tok := range strings.Fields(s) {
		tok = strings.TrimPrefix(tok, "v")
		if len(tok) > 0 && tok[0] >= '0' && tok[0] <= '9' {
			return tok
		}
	}
	return strings.TrimSpace(s)
}
