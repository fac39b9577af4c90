// internal/board/sleep.go
package board

import (
	"time"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

// NextWake is the delay before the next cycle.
//
//	power abort      -> max sleep
//	low power        -> interval * factor, capped at max sleep
//	any failed stage -> min(base, retry wake)
func NextWake(g boardcfg.GeneralConfig, r Result) time.Duration {
	if r.PowerAbort {
		return g.MaxSleep()
	}

	base := g.WakeInterval()
	if g.LowPower && g.LowPowerFactor > 1 {
		base *= time.Duration(g.LowPowerFactor)
		if limit := g.MaxSleep(); limit > 0 && base > limit {
			base = limit
		}
	}

	if r.Offline || r.Failed() {
		if retry := g.RetryWake(); retry > 0 && retry < base {
			return retry
		}
	}
	return base
}
