// Package monitoring reports unexpected failures to an external error
// tracker. The default reporter discards everything.
package monitoring

import "time"

// Reporter forwards errors and panics to an error tracker.
type Reporter interface {
	CaptureError(err error, tags map[string]string)
	// Recover must be deferred directly. It reports a panic and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

// NopReporter discards every report.
type NopReporter struct{}

func (NopReporter) CaptureError(error, map[string]string) {}
func (NopReporter) Recover()                              {}
func (NopReporter) Flush(time.Duration)                   {}

// Recorder keeps captured errors in memory.
type Recorder struct {
	Errors []error
	Tags   []map[string]string
}

func (r *Recorder) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err)
	r.Tags = append(r.Tags, tags)
}

func (r *Recorder) Recover()            {}
func (r *Recorder) Flush(time.Duration) {}
