package monitoring

import (
	"errors"
	"testing"
)

func TestRecorderSkipsNil(t *testing.T) {
	var r Recorder
	r.CaptureError(nil, nil)
	r.CaptureError(errors.New("boom"), map[string]string{"run_id": "r1"})
	if len(r.Errors) != 1 || r.Tags[0]["run_id"] != "r1" {
		t.Fatalf("unexpected records %+v", r)
	}
}
