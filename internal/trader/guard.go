// Package trader runs the live trading loop: it folds the realtime tick
// stream into candles and evaluates the trading rule whenever a new bucket
// opens at the trading duration.
package trader

import "sync/atomic"

// CoalescingGuard admits at most one evaluation at a time. Triggers that
// arrive while an evaluation runs collapse into a single pending rerun
// instead of queueing a goroutine each, so decision latency never grows a
// backlog during bursts.
type CoalescingGuard struct {
	inFlight atomic.Bool
	pending  atomic.Bool
}

// Schedule runs fn on a new goroutine unless an evaluation is already in
// flight, in which case it marks a rerun and returns. It reports whether
// this call started the evaluation.
func (g *CoalescingGuard) Schedule(fn func()) bool {
	if !g.inFlight.CompareAndSwap(false, true) {
		g.pending.Store(true)

		return false
	}

	go g.loop(fn)

	return true
}

func (g *CoalescingGuard) loop(fn func()) {
	for {
		fn()

		if g.pending.CompareAndSwap(true, false) {
			continue
		}

		g.inFlight.Store(false)

		// A trigger may have landed between the pending check and the
		// release above. Reclaim the slot and drain it so no trigger is
		// silently dropped.
		if g.pending.Load() && g.inFlight.CompareAndSwap(false, true) {
			if g.pending.CompareAndSwap(true, false) {
				continue
			}

			g.inFlight.Store(false)
		}

		return
	}
}
