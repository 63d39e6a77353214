//go:build !darwin && !linux

package metrics

import "time"

func processCPUTime() (time.Duration, bool) {
	return 0, false
}
