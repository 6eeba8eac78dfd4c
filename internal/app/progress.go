package service

import (
	"sync"
	"time"

	"github.com/okian/tauskim/internal/adapters/manifest"
)

// StatusPending marks a sample waiting for a free slot.
const StatusPending manifest.Status = "pending"

// SampleProgress is the live state of one sample.
type SampleProgress struct {
	Sample        string          `json:"sample"`
	Status        manifest.Status `json:"status"`
	Entries       int64           `json:"entries"`
	EventsRead    int64           `json:"events_read"`
	EventsWritten int64           `json:"events_written"`
	Error         string          `json:"error,omitempty"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}

// Snapshot is the document served on /stats.
type Snapshot struct {
	RunID   string           `json:"run_id"`
	Profile string           `json:"profile"`
	Samples []SampleProgress `json:"samples"`
}

// Progress tracks samples of the current run. It is safe for concurrent use.
type Progress struct {
	mu      sync.RWMutex
	runID   string
	profile string
	order   []string
	samples map[string]*SampleProgress
}

// NewProgress returns an empty tracker.
func NewProgress() *Progress {
	return &Progress{samples: make(map[string]*SampleProgress)}
}

// Reset starts tracking a new run with every sample pending.
func (p *Progress) Reset(runID, profile string, samples []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runID = runID
	p.profile = profile
	p.order = append([]string(nil), samples...)
	p.samples = make(map[string]*SampleProgress, len(samples))
	for _, s := range samples {
		p.samples[s] = &SampleProgress{Sample: s, Status: StatusPending}
	}
}

func (p *Progress) update(sample string, fn func(*SampleProgress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.samples[sample]
	if !ok {
		sp = &SampleProgress{Sample: sample, Status: StatusPending}
		p.samples[sample] = sp
		p.order = append(p.order, sample)
	}
	fn(sp)
}

// Start marks sample running with entries events to read.
func (p *Progress) Start(sample string, entries int64) {
	now := time.Now()
	p.update(sample, func(sp *SampleProgress) {
		sp.Status = manifest.StatusRunning
		sp.Entries = entries
		sp.StartedAt = &now
	})
}

// Read adds n events read.
func (p *Progress) Read(sample string, n int) {
	p.update(sample, func(sp *SampleProgress) { sp.EventsRead += int64(n) })
}

// Written adds n events written.
func (p *Progress) Written(sample string, n int) {
	p.update(sample, func(sp *SampleProgress) { sp.EventsWritten += int64(n) })
}

// Finish marks sample succeeded, or failed when err is not nil.
func (p *Progress) Finish(sample string, err error) {
	now := time.Now()
	p.update(sample, func(sp *SampleProgress) {
		sp.FinishedAt = &now
		sp.Status = manifest.StatusSucceeded
		if err != nil {
			sp.Status = manifest.StatusFailed
			sp.Error = err.Error()
		}
	})
}

// Snapshot copies the current state in run order.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := Snapshot{RunID: p.runID, Profile: p.profile, Samples: make([]SampleProgress, 0, len(p.order))}
	for _, s := range p.order {
		out.Samples = append(out.Samples, *p.samples[s])
	}
	return out
}
