package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordingReporter struct {
	errs []error
	tags []Tags
}

func (r *recordingReporter) ReportError(err error, tags Tags) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordingReporter) CapturePanic()       {}
func (r *recordingReporter) Flush(time.Duration) {}

func TestReportErrorForwardsToActiveReporter(t *testing.T) {
	rec := &recordingReporter{}
	Use(rec)
	defer Use(Discard{})

	err := errors.New("retrieval down")
	ReportError(err, Tags{"request_id": "req-1"})

	if len(rec.errs) != 1 || rec.errs[0] != err {
		t.Fatalf("reporter saw %v, want [%v]", rec.errs, err)
	}
	if rec.tags[0]["request_id"] != "req-1" {
		t.Fatalf("tags not forwarded: %v", rec.tags[0])
	}
}

func TestReportErrorDropsNil(t *testing.T) {
	rec := &recordingReporter{}
	Use(rec)
	defer Use(Discard{})

	ReportError(nil, nil)
	if len(rec.errs) != 0 {
		t.Fatalf("nil error was forwarded")
	}
}

func TestUseIgnoresNil(t *testing.T) {
	rec := &recordingReporter{}
	Use(rec)
	defer Use(Discard{})

	Use(nil)
	ReportError(errors.New("x"), nil)
	if len(rec.errs) != 1 {
		t.Fatalf("nil Use replaced the active reporter")
	}
}
