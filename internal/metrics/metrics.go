package metrics

import (
	"sync/atomic"
	"time"
)

// ID identifies a counter.
type ID uint16

const (
	LoginSuccess ID = iota
	LoginFailure
	LoginRateLimited
	LoginBanned
	LoginUnverified
	RefreshSuccess
	RefreshSuperseded
	RefreshFailure
	Logout
	ValidateAllowed
	ValidateSuperseded
	ValidateUnusable
	ValidateRejected
	CacheHit
	CacheMiss
	SecretTokenIssued
	SecretTokenRateLimited
	SecretTokenRedeemed
	SecretTokenRejected
	BanCreated
	BanLifted
	MuteCreated
	MuteLifted
	PasswordRehashed
	counterCount
)

// HistogramID identifies a latency histogram.
type HistogramID uint8

const (
	LoginLatency HistogramID = iota
	ValidateLatency
	histogramCount
)

// BucketCount is the number of histogram buckets, the last one being +Inf.
const BucketCount = 8

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

type histogram struct {
	buckets [BucketCount]uint64
	sumNs   uint64
}

// Config toggles collection.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [counterCount]paddedCounter
	histograms    [histogramCount]histogram
}

// HistogramSnapshot holds non-cumulative bucket counts and the sum of all
// observations.
type HistogramSnapshot struct {
	Buckets [BucketCount]uint64
	Sum     time.Duration
}

// Count returns the total number of observations.
func (h HistogramSnapshot) Count() uint64 {
	var n uint64
	for _, b := range h.Buckets {
		n += b
	}
	return n
}

// Cumulative returns running bucket totals as exporters expect them.
func (h HistogramSnapshot) Cumulative() [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, b := range h.Buckets {
		running += b
		out[i] = running
	}
	return out
}

type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[HistogramID]HistogramSnapshot
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id ID) {
	if m == nil || !m.enabled || id >= counterCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Observe(id HistogramID, d time.Duration) {
	if m == nil || !m.enableLatency || id >= histogramCount {
		return
	}
	if d < 0 {
		d = 0
	}
	h := &m.histograms[id]
	atomic.AddUint64(&h.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&h.sumNs, uint64(d))
}

// Value reads a single counter.
func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= counterCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency is enabled, every
// histogram. Disabled metrics produce empty maps.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[ID]uint64{},
			Histograms: map[HistogramID]HistogramSnapshot{},
		}
	}

	s := Snapshot{
		Counters:   make(map[ID]uint64, int(counterCount)),
		Histograms: make(map[HistogramID]HistogramSnapshot, int(histogramCount)),
	}
	for id := ID(0); id < counterCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := HistogramID(0); id < histogramCount; id++ {
			var hs HistogramSnapshot
			for i := 0; i < BucketCount; i++ {
				hs.Buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			hs.Sum = time.Duration(atomic.LoadUint64(&m.histograms[id].sumNs))
			s.Histograms[id] = hs
		}
	}

	return s
}

// BucketBounds are the upper bounds of the finite buckets in seconds.
var BucketBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
