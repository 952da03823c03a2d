package llm

import (
	"context"
	"sync"
)

// Tally accumulates token use. CostUSD only counts models with known
// pricing; Unpriced counts the requests that were left out.
type Tally struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Unpriced     int
}

func (t *Tally) add(resp *Response, err error) {
	t.Requests++
	if err != nil {
		t.Failures++
	}
	if resp == nil {
		return
	}
	t.InputTokens += resp.Usage.InputTokens
	t.OutputTokens += resp.Usage.OutputTokens
	if c := LookupCost(resp.Model); c != nil {
		t.CostUSD += c.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	} else {
		t.Unpriced++
	}
}

// UsageMeter totals token use per purpose for one tutor session.
type UsageMeter struct {
	mu  sync.Mutex
	per map[Purpose]Tally
}

func NewUsageMeter() *UsageMeter {
	return &UsageMeter{per: make(map[Purpose]Tally)}
}

func (m *UsageMeter) record(p Purpose, resp *Response, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.per[p]
	t.add(resp, err)
	m.per[p] = t
}

// ByPurpose returns a copy of the per-purpose tallies.
func (m *UsageMeter) ByPurpose() map[Purpose]Tally {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Purpose]Tally, len(m.per))
	for p, t := range m.per {
		out[p] = t
	}
	return out
}

// Total sums every purpose.
func (m *UsageMeter) Total() Tally {
	var sum Tally
	for _, t := range m.ByPurpose() {
		sum.Requests += t.Requests
		sum.Failures += t.Failures
		sum.InputTokens += t.InputTokens
		sum.OutputTokens += t.OutputTokens
		sum.CostUSD += t.CostUSD
		sum.Unpriced += t.Unpriced
	}
	return sum
}

// MeteredProvider records every call's usage on a UsageMeter.
type MeteredProvider struct {
	inner Provider
	meter *UsageMeter
}

// WithMeter wraps p so that its usage is recorded on m.
func WithMeter(p Provider, m *UsageMeter) Provider {
	return &MeteredProvider{inner: p, meter: m}
}

func (mp *MeteredProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := mp.inner.Generate(ctx, req)
	mp.meter.record(PurposeFrom(ctx), resp, err)
	return resp, err
}

func (mp *MeteredProvider) ModelID() string {
	return mp.inner.ModelID()
}
