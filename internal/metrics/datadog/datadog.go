// Package datadog implements a Datadog backend for internal/metrics.
//
// Observations are buffered in memory and submitted on a ticker (once a
// minute by default) and once more on Close, so long uploads show up as a
// time series instead of a single point at exit.
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/prof-ramos/planilhas-gov-br/internal/metrics"
)

// Options controls the backend.
type Options struct {
	// JobName becomes the "job:<name>" tag. Defaults to "planilhas".
	JobName string
	// Tags are extra tags such as "env:prod".
	Tags []string
	// FlushEvery defaults to 60 seconds.
	FlushEvery time.Duration

	// Test seams.
	now       func() time.Time
	submitter metricsSubmitter
}

// metricsSubmitter is the part of *datadogV2.MetricsApi the backend uses.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend.
type Backend struct {
	api        metricsSubmitter
	ctx        context.Context
	flushEvery time.Duration
	baseTags   []string
	now        func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu              sync.Mutex
	stepCounts      map[string]float64
	recordCounts    map[string]float64
	batchCounts     map[string]float64
	durationSamples map[string][]float64
}

// NewBackend starts a backend with its flush loop. Credentials come from the
// DD_API_KEY / DD_SITE environment variables read by the Datadog client.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "planilhas"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	now := opts.now
	if now == nil {
		now = time.Now
	}
	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		baseTags:   baseTags,
		now:        now,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	b.reset()

	go b.loop()
	return b, nil
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := time.NewTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and submits whatever is buffered. Calling it
// more than once only flushes again.
func (b *Backend) Close() error {
	b.once.Do(func() {
		close(b.stopCh)
		<-b.doneCh
	})
	return b.Flush()
}

// reset replaces the buffers. Callers hold mu or own b exclusively.
func (b *Backend) reset() {
	b.stepCounts = make(map[string]float64)
	b.recordCounts = make(map[string]float64)
	b.batchCounts = make(map[string]float64)
	b.durationSamples = make(map[string][]float64)
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.StepTotal:
		b.stepCounts[stepStatusKey(labels["step"], labels["status"])] += delta
	case metrics.RecordsTotal:
		if kind := labels["kind"]; kind != "" {
			b.recordCounts[kind] += delta
		}
	case metrics.BatchesTotal:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		b.batchCounts[status] += delta
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 || name != metrics.StepDuration {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	k := stepStatusKey(labels["step"], labels["status"])
	b.durationSamples[k] = append(b.durationSamples[k], value)
}

type snapshot struct {
	stepCounts      map[string]float64
	recordCounts    map[string]float64
	batchCounts     map[string]float64
	durationSamples map[string][]float64
}

func (s snapshot) isEmpty() bool {
	return len(s.stepCounts) == 0 &&
		len(s.recordCounts) == 0 &&
		len(s.batchCounts) == 0 &&
		len(s.durationSamples) == 0
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		stepCounts:      b.stepCounts,
		recordCounts:    b.recordCounts,
		batchCounts:     b.batchCounts,
		durationSamples: b.durationSamples,
	}
	b.reset()
	return s
}

// Flush submits buffered metrics. Buffers are reset even when submission
// fails.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}
	if _, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters()); err != nil {
		return fmt.Errorf("datadog: submit metrics: %w", err)
	}
	return nil
}

func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.stepCounts)+len(s.recordCounts)+len(s.batchCounts)+6*len(s.durationSamples))

	for k, v := range s.stepCounts {
		step, status := splitStepStatusKey(k)
		series = append(series, countSeries("etl.step.total", v, withTags(b.baseTags, "step:"+step, "status:"+status), nowUnix))
	}
	for kind, v := range s.recordCounts {
		series = append(series, countSeries("etl.records.total", v, withTags(b.baseTags, "kind:"+kind), nowUnix))
	}
	for status, v := range s.batchCounts {
		series = append(series, countSeries("etl.batches.total", v, withTags(b.baseTags, "status:"+status), nowUnix))
	}
	for k, samples := range s.durationSamples {
		addPercentiles(&series, b.baseTags, "etl.step.duration_seconds", k, samples, nowUnix)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Metric < series[j].Metric })
	return series
}

// addPercentiles appends p50, p90, p95, p99, max and sample-count gauges.
// samples is not modified.
func addPercentiles(series *[]datadogV2.MetricSeries, baseTags []string, prefix, key string, samples []float64, nowUnix int64) {
	if len(samples) == 0 {
		return
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	step, status := splitStepStatusKey(key)
	tags := withTags(baseTags, "step:"+step, "status:"+status)

	*series = append(*series,
		gaugeSeries(prefix+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix),
		gaugeSeries(prefix+".p90", percentileNearestRank(cp, 0.90), tags, nowUnix),
		gaugeSeries(prefix+".p95", percentileNearestRank(cp, 0.95), tags, nowUnix),
		gaugeSeries(prefix+".p99", percentileNearestRank(cp, 0.99), tags, nowUnix),
		gaugeSeries(prefix+".max", cp[len(cp)-1], tags, nowUnix),
		gaugeSeries(prefix+".samples", float64(len(cp)), tags, nowUnix),
	)
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func stepStatusKey(step, status string) string {
	return step + "\x00" + status
}

func splitStepStatusKey(k string) (step, status string) {
	if step, status, ok := strings.Cut(k, "\x00"); ok {
		return step, status
	}
	return k, "unknown"
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	return append(out, extras...)
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	switch {
	case n == 0:
		return 0
	case p <= 0:
		return s[0]
	case p >= 1:
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

// ParseTagsCSV splits "env:prod,service:planilhas" into tags, dropping blanks.
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ metrics.Backend = (*Backend)(nil)
