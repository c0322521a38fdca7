package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	ticks int
	runs  int
	err   error
}

func (r *recordSink) RecordTick(TickRecord) error {
	r.ticks++
	return r.err
}

func (r *recordSink) RecordRun(RunRecord) error {
	r.runs++
	return r.err
}

type tickOnly struct{ ticks int }

func (t *tickOnly) RecordTick(TickRecord) error {
	t.ticks++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordTick(TickRecord{}); err != nil {
		t.Fatalf("record tick: %v", err)
	}
	if err := m.RecordRun(RunRecord{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if s1.ticks != 1 || s2.ticks != 1 || s1.runs != 1 || s2.runs != 1 {
		t.Fatalf("records not forwarded")
	}
}

func TestMultiSinkContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordSink{err: boom}
	ok := &tickOnly{}
	m := NewMultiSink(failing, ok)
	err := m.RecordTick(TickRecord{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ok.ticks != 1 {
		t.Fatalf("second sink skipped")
	}
	if err := m.RecordRun(RunRecord{}); !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
}

type closingSink struct {
	tickOnly
	closed bool
	err    error
}

func (c *closingSink) Close() error {
	c.closed = true
	return c.err
}

type plainCloser struct {
	tickOnly
	closed bool
}

func (c *plainCloser) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	boom := errors.New("boom")
	a := &closingSink{err: boom}
	b := &plainCloser{}
	m := NewMultiSink(a, &tickOnly{}, b)
	if err := m.Close(); !errors.Is(err, boom) {
		t.Fatalf("expected close error, got %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("closers not called")
	}
}
