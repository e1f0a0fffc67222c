package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

type fakeBackend struct {
	mu         sync.Mutex
	counters   []counterCall
	histograms []histCall
	flushes    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func useFake(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() { SetBackend(orig) })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := useFake(t)

	RecordStep("upload", "ingest", nil, 2*time.Second)
	RecordStep("upload", "upload", errors.New("boom"), 500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("got %d counters, %d histograms; want 2 each", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != StepTotal || c.labels["status"] != "success" || c.labels["step"] != "ingest" {
		t.Errorf("first counter = %+v", c)
	}
	if c := fb.counters[1]; c.labels["status"] != "failure" {
		t.Errorf("second counter status = %q, want failure", c.labels["status"])
	}
	if h := fb.histograms[1]; h.name != StepDuration || h.value != 0.5 {
		t.Errorf("second histogram = %+v", h)
	}
}

func TestRecordRowsIgnoresNonPositive(t *testing.T) {
	fb := useFake(t)

	RecordRows("process", "ingested", 0)
	RecordRows("process", "ingested", -3)
	RecordRows("process", "ingested", 42)

	if len(fb.counters) != 1 {
		t.Fatalf("got %d counters, want 1", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RecordsTotal || c.delta != 42 || c.labels["kind"] != "ingested" {
		t.Errorf("counter = %+v", c)
	}
}

func TestRecordBatchAndFlush(t *testing.T) {
	fb := useFake(t)

	RecordBatch("upload", "success")
	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if len(fb.counters) != 1 || fb.counters[0].name != BatchesTotal || fb.counters[0].labels["status"] != "success" {
		t.Errorf("counters = %+v", fb.counters)
	}
	if fb.flushes != 1 {
		t.Errorf("flushes = %d, want 1", fb.flushes)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fb := useFake(t)
	SetBackend(nil)
	if current() != Backend(fb) {
		t.Error("SetBackend(nil) replaced the backend")
	}
}
