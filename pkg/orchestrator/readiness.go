// pkg/orchestrator/readiness.go
package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-ping/ping"
)

const defaultProbeTimeout = 3 * time.Second

// ReadinessProbe decides whether conditions warrant running a unit at all,
// independent of its dependency availability.
type ReadinessProbe func(ctx context.Context, target string) (ok bool, reason string)

// ICMPProbe returns a probe that sends a single unprivileged ICMP echo to the
// target host. Units opt in via the ping_gate option; an unreachable target
// short-circuits them to a "Not Run" record.
func ICMPProbe(timeout time.Duration) ReadinessProbe {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return func(ctx context.Context, target string) (bool, string) {
		host := hostOf(target)
		pinger, err := ping.NewPinger(host)
		if err != nil {
			return false, fmt.Sprintf("cannot resolve %s: %v", host, err)
		}
		pinger.Count = 1
		pinger.Timeout = timeout
		pinger.SetPrivileged(false)

		// Run blocks; stop the pinger if the parent context is cancelled
		// before the probe's own timeout fires.
		opCtx, opCancel := context.WithTimeout(ctx, timeout+500*time.Millisecond)
		defer opCancel()
		go func() {
			<-opCtx.Done()
			pinger.Stop()
		}()

		if err := pinger.Run(); err != nil {
			return false, fmt.Sprintf("ping %s: %v", host, err)
		}
		if pinger.Statistics().PacketsRecv == 0 {
			return false, fmt.Sprintf("target %s unreachable", host)
		}
		return true, ""
	}
}

// hostOf strips scheme, path and port from a target so it can be pinged.
func hostOf(target string) string {
	candidate := target
	if strings.Contains(candidate, "://") {
		if parsed, err := url.Parse(candidate); err == nil && parsed.Hostname() != "" {
			return parsed.Hostname()
		}
	}
	if idx := strings.IndexAny(candidate, "/?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	if host, _, ok := strings.Cut(candidate, ":"); ok && host != "" {
		return host
	}
	return candidate
}
