package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordMonitor struct {
	err       error
	tags      map[string]string
	recovered any
	flushed   bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recovered(v any)     { r.recovered = v }
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	CaptureException(nil, nil)
	assert.Nil(t, mon.err)

	CaptureException(errors.New("boom"), map[string]string{"solver": "lp-bound"})
	assert.EqualError(t, mon.err, "boom")
	assert.Equal(t, "lp-bound", mon.tags["solver"])
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(nil)

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	assert.Equal(t, "bad", mon.recovered)
	assert.True(t, mon.flushed)
}
