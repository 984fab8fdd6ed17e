// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hymkor/trash-go"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/choria-io/extractvpk/bundle"
	"github.com/choria-io/extractvpk/fetch"
	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/metrics"
	"github.com/choria-io/extractvpk/model"
)

// Runner executes the jobs in a job file, jobs with unrelated outputs and archives run concurrently
type Runner struct {
	mgr         model.Extractor
	userLog     model.Logger
	log         model.Logger
	concurrency int
	downloader  *fetch.Downloader
	stager      *bundle.Stager
	trash       func(path string) error
}

// Option configures a Runner
type Option func(*Runner) error

// WithConcurrency sets how many outputs are extracted at the same time, 0 uses GOMAXPROCS
func WithConcurrency(n int) Option {
	return func(r *Runner) error {
		if n < 0 {
			return fmt.Errorf("concurrency must not be negative")
		}

		r.concurrency = n
		return nil
	}
}

// WithDownloader sets the downloader used for jobs with a url
func WithDownloader(d *fetch.Downloader) Option {
	return func(r *Runner) error {
		r.downloader = d
		return nil
	}
}

// WithTrash sets the function used to remove outputs of jobs that request cleaning
func WithTrash(t func(path string) error) Option {
	return func(r *Runner) error {
		r.trash = t
		return nil
	}
}

// NewRunner creates a runner extracting through mgr and reporting job results to userLog
func NewRunner(mgr model.Extractor, userLog model.Logger, opts ...Option) (*Runner, error) {
	log, err := mgr.Logger("component", "jobs")
	if err != nil {
		return nil, err
	}

	r := &Runner{
		mgr:     mgr,
		userLog: userLog,
		log:     log,
		stager:  bundle.New(mgr.Filesystem(), log),
		trash:   func(path string) error { return trash.Throw(path) },
	}

	for _, opt := range opts {
		err = opt(r)
		if err != nil {
			return nil, err
		}
	}

	if r.concurrency == 0 {
		r.concurrency = runtime.GOMAXPROCS(0)
	}

	if r.downloader == nil {
		r.downloader = fetch.New(mgr.Filesystem(), log)
	}

	if r.userLog == nil {
		r.userLog = model.NopLogger{}
	}

	return r, nil
}

// Execute runs every job in jf within a new session and returns the session summary
func (r *Runner) Execute(ctx context.Context, jf *JobFile) (*model.SessionSummary, error) {
	timer := prometheus.NewTimer(metrics.JobFileApplyTime.WithLabelValues(jf.Source()))
	defer timer.ObserveDuration()

	session := r.mgr.SessionStore()

	err := session.StartSession(len(jf.Jobs))
	if err != nil {
		return nil, err
	}

	concurrency := r.concurrency
	if jf.Concurrency > 0 {
		concurrency = jf.Concurrency
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	wg := sync.WaitGroup{}

	for _, chain := range chainJobs(jf.Jobs) {
		wg.Add(1)

		err = pool.Submit(func() {
			defer wg.Done()

			for _, job := range chain {
				r.runJob(ctx, job)
			}
		})
		if err != nil {
			wg.Done()
			for _, job := range chain {
				r.failJob(job, job.Archive, fmt.Errorf("could not schedule job: %w", err))
			}
		}
	}

	wg.Wait()

	return session.StopSession(false)
}

// chainJobs groups jobs that must not run at the same time keeping job file order, jobs in a chain run one after the other.
//
// Jobs conflict when one output directory holds the other or when they share an archive path.
func chainJobs(jobs []model.ExtractJob) [][]model.ExtractJob {
	parent := make([]int, len(jobs))
	for i := range parent {
		parent[i] = i
	}

	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range jobs {
		for j := 0; j < i; j++ {
			if conflicts(jobs[i], jobs[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	var order []int
	chains := make(map[int][]model.ExtractJob)

	for i, job := range jobs {
		root := find(i)

		_, ok := chains[root]
		if !ok {
			order = append(order, root)
		}

		chains[root] = append(chains[root], job)
	}

	res := make([][]model.ExtractJob, 0, len(order))
	for _, root := range order {
		res = append(res, chains[root])
	}

	return res
}

func conflicts(a model.ExtractJob, b model.ExtractJob) bool {
	ao, bo := cleanPath(a.Output), cleanPath(b.Output)
	if iu.IsWithin(ao, bo) || iu.IsWithin(bo, ao) {
		return true
	}

	return cleanPath(a.Archive) == cleanPath(b.Archive)
}

func cleanPath(p string) string {
	return iu.NormalizePath(filepath.Clean(p))
}

func (r *Runner) runJob(ctx context.Context, job model.ExtractJob) {
	log := r.log.With("job", job.Name)

	if ctx.Err() != nil {
		r.failJob(job, job.Archive, fmt.Errorf("job not started: %w", ctx.Err()))
		return
	}

	if job.Url != "" {
		_, err := r.downloader.Download(ctx, fetch.Request{
			Url:         job.Url,
			Destination: job.Archive,
			Checksum:    job.Checksum,
			Username:    job.Username,
			Password:    job.Password,
			Headers:     job.Headers,
		})
		if err != nil {
			r.failJob(job, job.Archive, err)
			return
		}
	} else if job.Checksum != "" {
		err := iu.Sha256VerifyFile(r.mgr.Filesystem(), job.Archive, job.Checksum)
		if err != nil {
			r.failJob(job, job.Archive, fmt.Errorf("%w: %w", model.ErrChecksumMismatch, err))
			return
		}
	}

	if job.Clean && iu.IsDirectory(r.mgr.Filesystem(), job.Output) {
		log.Info("Removing previous output", "output", job.Output)
		err := r.trash(job.Output)
		if err != nil {
			r.failJob(job, job.Archive, fmt.Errorf("could not clean %s: %w", job.Output, err))
			return
		}
	}

	archives := []string{job.Archive}

	if job.IsBundle() {
		staged, err := r.stager.Stage(job.Archive)
		if err != nil {
			r.failJob(job, job.Archive, err)
			return
		}
		defer staged.Cleanup()

		archives = staged.Archives
	}

	for _, archive := range archives {
		req := job.Request(archive)
		if job.IsBundle() {
			req.Name = fmt.Sprintf("%s:%s", job.Name, filepath.Base(archive))
		}

		outcome, res, err := r.mgr.Extract(ctx, req, log)
		model.NewExtractionEvent(req.Name, req, outcome, res, err).LogStatus(r.userLog)
	}
}

// failJob records a job that could not reach extraction
func (r *Runner) failJob(job model.ExtractJob, archive string, err error) {
	event := model.NewExtractionEvent(job.Name, job.Request(archive), model.OutcomeFailed, nil, err)
	event.LogStatus(r.userLog)

	rerr := r.mgr.SessionStore().RecordEvent(event)
	if rerr != nil {
		r.log.Error("Could not record extraction event", "job", job.Name, "error", rerr)
	}
}
