package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetZeroesAllFields(t *testing.T) {
	c := New()
	c.GlobalOps += 1
	c.GlobalMem += 1024
	c.TimeSumS += 0.25

	assert.Equal(t, int64(1), c.GlobalOps)
	assert.Equal(t, int64(1024), c.GlobalMem)

	c.Reset()
	assert.Zero(t, c.GlobalOps)
	assert.Zero(t, c.GlobalMem)
	assert.Equal(t, 0.0, c.TimeSumS)
}

func TestResetOnNegativeValues(t *testing.T) {
	c := &Counters{GlobalOps: -5, GlobalMem: -1, TimeSumS: -3.5}
	c.Reset()
	assert.Equal(t, Counters{}, *c)
}

func TestSharedByReference(t *testing.T) {
	c := New()
	bump := func(x *Counters) { x.GlobalOps++ }
	bump(c)
	bump(c)
	assert.Equal(t, int64(2), c.GlobalOps)
}

func TestFieldsAndString(t *testing.T) {
	c := &Counters{GlobalOps: 3, GlobalMem: 64, TimeSumS: 1.5}
	f := c.Fields()
	assert.Equal(t, int64(3), f["global_ops"])
	assert.Equal(t, int64(64), f["global_mem"])
	assert.Equal(t, 1.5, f["time_sum_s"])
	assert.Equal(t, "ops=3 mem=64 time_sum_s=1.500000", c.String())
}
