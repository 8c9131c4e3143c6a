// Package app wires the hypothesis-test entry points into services callable
// from commands and other front ends.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"pairstat/domain/dist"
	"pairstat/domain/stats"
	"pairstat/hypotheses"
)

// Job is one self-contained table computation: a dataset, a test family
// and the strategy and options steering it.
type Job struct {
	Name        string            `json:"name"`
	Test        stats.TestType    `json:"test"`
	Comparison  string            `json:"comparison"`
	Group       string            `json:"group,omitempty"` // reference or baseline group
	Alternative stats.Alternative `json:"alternative,omitempty"`
	PValApprox  stats.PValApprox  `json:"p_val_approx,omitempty"`
	// IgnoreEmptyComparator only applies to the paired family.
	IgnoreEmptyComparator bool `json:"ignore_empty_comparator,omitempty"`

	Distribution *dist.Distribution `json:"distribution"`
	AgainstEach  *dist.Distribution `json:"against_each,omitempty"`
}

// JobResult pairs a finished table with the job that produced it.
type JobResult struct {
	Name      string             `json:"name"`
	Table     *stats.ResultTable `json:"table"`
	RuntimeMs int64              `json:"runtime_ms"`
}

// BatchService runs independent table computations concurrently. Each
// computation stays synchronous internally; the semaphore only bounds how
// many run at once.
type BatchService struct {
	sem   *semaphore.Weighted
	limit int64
}

// NewBatchService creates a batch service allowing maxConcurrent
// simultaneous computations. Zero or negative falls back to 4.
func NewBatchService(maxConcurrent int64) *BatchService {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &BatchService{sem: semaphore.NewWeighted(maxConcurrent), limit: maxConcurrent}
}

// Run executes every job and returns results in job order. The first
// failing job fails the batch; jobs still waiting on the semaphore are
// released through context cancellation.
func (s *BatchService) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	log.Printf("[BatchService] running %d jobs (max %d concurrent)", len(jobs), s.limit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		idx    int
		result JobResult
		err    error
	}
	outcomes := make(chan outcome, len(jobs))

	for i, job := range jobs {
		go func(idx int, job Job) {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				outcomes <- outcome{idx: idx, err: fmt.Errorf("job %s: %w", job.Name, err)}
				return
			}
			defer s.sem.Release(1)

			start := time.Now()
			table, err := runJob(job)
			if err != nil {
				outcomes <- outcome{idx: idx, err: fmt.Errorf("job %s: %w", job.Name, err)}
				return
			}
			outcomes <- outcome{idx: idx, result: JobResult{
				Name:      job.Name,
				Table:     table,
				RuntimeMs: time.Since(start).Milliseconds(),
			}}
		}(i, job)
	}

	results := make([]JobResult, len(jobs))
	var firstErr error
	for range jobs {
		o := <-outcomes
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
				cancel()
			}
			continue
		}
		results[o.idx] = o.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	log.Printf("[BatchService] %d jobs finished", len(jobs))
	return results, nil
}

// runJob resolves the comparison strategy and dispatches on test family.
func runJob(job Job) (*stats.ResultTable, error) {
	if job.Distribution == nil {
		return nil, fmt.Errorf("no distribution loaded")
	}
	switch job.Test {
	case stats.TestMannWhitneyU:
		comp, err := hypotheses.ParseIndependent(job.Comparison, job.Group)
		if err != nil {
			return nil, err
		}
		return hypotheses.MannWhitneyU(job.Distribution, comp, hypotheses.UTestConfig{
			AgainstEach: job.AgainstEach,
			Alternative: job.Alternative,
			PValApprox:  job.PValApprox,
		})
	case stats.TestWilcoxonSRT:
		comp, err := hypotheses.ParsePaired(job.Comparison, job.Group)
		if err != nil {
			return nil, err
		}
		return hypotheses.WilcoxonSRT(job.Distribution, comp, hypotheses.SRTConfig{
			Alternative:           job.Alternative,
			PValApprox:            job.PValApprox,
			IgnoreEmptyComparator: job.IgnoreEmptyComparator,
		})
	}
	return nil, fmt.Errorf("unknown test type: %q", job.Test)
}
