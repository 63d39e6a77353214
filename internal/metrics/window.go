package metrics

// Window converts cumulative counters into per-tick deltas. It is owned
// by a single SnapshotEngine and is not safe for concurrent use.
type Window struct {
	prevRequests float64
	prevErrors   float64
}

// WindowDelta is the activity observed during one tick.
type WindowDelta struct {
	Requests     float64
	Errors       float64
	ErrorRatePct float64
}

// Advance computes the delta against the previous totals and stores the
// new totals. A counter that went backwards (process restart) yields a
// zero delta rather than a negative one.
func (w *Window) Advance(totalRequests, totalErrors float64) WindowDelta {
	d := WindowDelta{
		Requests: nonNegative(totalRequests - w.prevRequests),
		Errors:   nonNegative(totalErrors - w.prevErrors),
	}
	if d.Requests > 0 {
		d.ErrorRatePct = d.Errors / d.Requests * 100
	}

	w.prevRequests = totalRequests
	w.prevErrors = totalErrors
	return d
}

// Previous returns the totals recorded by the last Advance.
func (w *Window) Previous() (requests, errors float64) {
	return w.prevRequests, w.prevErrors
}

func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
