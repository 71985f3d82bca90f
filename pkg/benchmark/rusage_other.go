//go:build !linux && !darwin

package benchmark

import "time"

func cpuTimes() (user, sys time.Duration) {
	return 0, 0
}
