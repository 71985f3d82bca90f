// Package counters provides a shared set of manual instrumentation counters.
package counters

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Counters holds operation, memory and time accumulators.
//
// Fields are mutated directly by callers with plain read-modify-write.
// Nothing here is synchronized: callers sharing a Counters across
// goroutines must coordinate access themselves.
type Counters struct {
	GlobalOps int64
	GlobalMem int64
	TimeSumS  float64
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.GlobalOps = 0
	c.GlobalMem = 0
	c.TimeSumS = 0.0
}

func (c *Counters) String() string {
	return fmt.Sprintf("ops=%d mem=%d time_sum_s=%.6f", c.GlobalOps, c.GlobalMem, c.TimeSumS)
}

// Fields returns the counters as logrus fields.
func (c *Counters) Fields() logrus.Fields {
	return logrus.Fields{
		"global_ops": c.GlobalOps,
		"global_mem": c.GlobalMem,
		"time_sum_s": c.TimeSumS,
	}
}
