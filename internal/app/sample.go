package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/tauskim/internal/adapters/manifest"
	"github.com/okian/tauskim/internal/adapters/mq/queue"
	"github.com/okian/tauskim/internal/adapters/mq/worker"
	"github.com/okian/tauskim/internal/adapters/nanoaod"
	"github.com/okian/tauskim/internal/adapters/skimfile"
	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/pkg/logger"
	"github.com/okian/tauskim/pkg/metrics"
)

// SampleReport is the outcome of one sample.
type SampleReport struct {
	Sample   string
	Input    string
	Output   string
	Weight   float64
	CutFlow  skim.CutFlow
	Written  int64
	Duration time.Duration
	Err      error
}

// InputPath returns the input file of a sample.
func (s *Service) InputPath(sample string) string {
	return filepath.Join(s.cfg.InputDir, sample+".root")
}

func (s *Service) skimSample(ctx context.Context, runID, sample string) SampleReport {
	start := time.Now()
	rep := SampleReport{
		Sample:  sample,
		Input:   s.InputPath(sample),
		Output:  skimfile.Path(s.cfg.OutputDir, sample),
		CutFlow: skim.NewCutFlow(),
	}
	log := s.logger.With(logger.String("run_id", runID), logger.String("sample", sample))

	var id int64
	if s.manifest != nil {
		weight, _ := s.weights.Weight(sample)
		var err error
		id, err = s.manifest.Start(ctx, manifest.Entry{
			RunID:   runID,
			Sample:  sample,
			Profile: s.cfg.Profile,
			Weight:  weight,
			Output:  rep.Output,
		})
		if err != nil {
			log.Warn(ctx, "manifest start failed", logger.Error(err))
			id = 0
		}
	}

	rep.Err = s.skim(ctx, log, &rep)
	rep.Duration = time.Since(start)

	status := manifest.StatusSucceeded
	if rep.Err != nil {
		status = manifest.StatusFailed
		metrics.RecordErrorByComponent("service", "sample_failed")
		log.Error(ctx, "sample failed", logger.Error(rep.Err))
	} else {
		for _, st := range skim.Stages {
			metrics.RecordStagePassed(string(st), rep.CutFlow.Passed[st])
		}
		metrics.RecordEventsWritten(sample, int(rep.Written))
		log.Info(ctx, "sample skimmed",
			logger.String("output", rep.Output),
			logger.Float64("weight", rep.Weight),
			logger.Int("events_read", rep.CutFlow.Read),
			logger.Int64("events_written", rep.Written),
			logger.Float64("seconds", rep.Duration.Seconds()),
		)
	}
	metrics.RecordSampleProcessed(string(status))
	metrics.RecordSampleDuration(rep.Duration.Seconds())
	s.progress.Finish(sample, rep.Err)

	if id != 0 {
		// The sample outcome is recorded even when the run is being cancelled.
		if err := s.manifest.Finish(context.WithoutCancel(ctx), id, int64(rep.CutFlow.Read), rep.Written, rep.Err); err != nil {
			log.Warn(ctx, "manifest finish failed", logger.Error(err))
		}
	}
	return rep
}

// skim runs one sample end to end. Every configuration problem is reported
// before the output file is created.
func (s *Service) skim(ctx context.Context, log logger.Logger, rep *SampleReport) error {
	weight, err := s.weights.Weight(rep.Sample)
	if err != nil {
		return err
	}
	rep.Weight = weight

	pipeline, err := skim.NewPipeline(s.selection, weight)
	if err != nil {
		return err
	}

	reader, err := nanoaod.Open(rep.Input, s.cfg.TreeName, s.layout, nanoaod.WithLogger(log))
	if err != nil {
		return err
	}
	defer reader.Close()
	s.progress.Start(rep.Sample, reader.Entries())

	w, err := skimfile.Create(rep.Output, s.cfg.TreeName)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			w.Abort()
		}
	}()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize), queue.WithSample(rep.Sample))
	pool := worker.NewPool(s.cfg.WorkerCount, q, pipeline, worker.WithSample(rep.Sample))
	pool.Start(sctx)

	readErr := make(chan error, 1)
	go func() {
		defer func() { _ = q.Close() }()
		err := reader.ReadBatches(sctx, rep.Sample, s.cfg.BatchSize, func(b model.Batch) error {
			metrics.RecordEventsRead(b.Sample, len(b.Events))
			s.progress.Read(b.Sample, len(b.Events))
			return q.Enqueue(sctx, b)
		})
		if err != nil {
			cancel()
		}
		readErr <- err
	}()

	var (
		firstErr error
		seq      = newResequencer()
	)
	for o := range pool.Outcomes() {
		if firstErr != nil {
			continue
		}
		if o.Err != nil {
			firstErr = o.Err
			cancel()
			continue
		}
		for _, res := range seq.push(o.Result) {
			if err := w.Write(res.Records); err != nil {
				firstErr = fmt.Errorf("write %s: %w", rep.Output, err)
				cancel()
				break
			}
			rep.CutFlow.Add(res.CutFlow)
			s.progress.Written(rep.Sample, len(res.Records))
		}
	}

	if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := <-readErr; err != nil && firstErr == nil {
		firstErr = fmt.Errorf("read %s: %w", rep.Input, err)
	}
	if err := ctx.Err(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return firstErr
	}
	if n := seq.pending(); n > 0 {
		return fmt.Errorf("%w: %d batches after %d never written", ErrBatchGap, n, seq.next)
	}

	rep.Written = w.Rows()
	if err := w.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// resequencer releases batch results in Seq order.
type resequencer struct {
	next    int
	waiting map[int]skim.Result
}

func newResequencer() *resequencer {
	return &resequencer{waiting: make(map[int]skim.Result)}
}

// push stores res and returns every result that is now in order.
func (r *resequencer) push(res skim.Result) []skim.Result {
	r.waiting[res.Seq] = res
	var ready []skim.Result
	for {
		next, ok := r.waiting[r.next]
		if !ok {
			return ready
		}
		delete(r.waiting, r.next)
		ready = append(ready, next)
		r.next++
	}
}

func (r *resequencer) pending() int {
	return len(r.waiting)
}
