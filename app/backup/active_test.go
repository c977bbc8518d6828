package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActive(t *testing.T) {
	a := active{}
	ts := time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)
	_, ok := a.add("R1", ts)
	assert.True(t, ok, "passed, first time")

	since, ok := a.add("R1", ts.Add(time.Minute))
	assert.False(t, ok, "failed, already running")
	assert.Equal(t, ts, since)

	_, ok = a.add("R2", ts)
	assert.True(t, ok, "passed, different robot")

	a.remove("R1")
	a.remove("R1")
	_, ok = a.add("R1", ts)
	assert.True(t, ok, "passed, removed before")
}
