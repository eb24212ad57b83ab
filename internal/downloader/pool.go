package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/ratelimit"
)

// Job is one media file to fetch
type Job struct {
	URL      string
	NoteID   string
	FileName string
}

// Result is the outcome of a job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// MediaFetcher downloads media bytes
type MediaFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// MediaStore persists media files
type MediaStore interface {
	IsSaved(name string) bool
	Save(r io.Reader, name string) error
}

// WorkerPool downloads media with a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     MediaFetcher
	store       MediaStore
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a pool bound to ctx
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	fetcher MediaFetcher,
	store MediaStore,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		store:       store,
		rateLimiter: rateLimiter,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// DownloadAll runs jobs to completion and returns their results in
// completion order. Every job gets a result; jobs left over after the
// context is cancelled fail with its error.
func (wp *WorkerPool) DownloadAll(jobs []Job) []Result {
	wp.Start()

	results := make([]Result, 0, len(jobs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range wp.Results() {
			results = append(results, r)
		}
	}()

	var unsent []Job
	for i, job := range jobs {
		if err := wp.Submit(job); err != nil {
			wp.logger.WithError(err).Warn("Stopped submitting media jobs")
			unsent = jobs[i:]
			break
		}
	}
	wp.Stop()
	<-done

	for _, job := range unsent {
		results = append(results, Result{Job: job, Error: wp.ctx.Err()})
	}
	return results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if err := wp.ctx.Err(); err != nil {
			wp.resultQueue <- Result{Job: job, Error: err}
			continue
		}
		wp.resultQueue <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	fields := map[string]interface{}{
		"worker_id": workerID,
		"note_id":   job.NoteID,
		"file":      job.FileName,
	}

	if wp.store.IsSaved(job.FileName) {
		wp.logger.DebugWithFields("Media already saved", fields)
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
		result.Error = fmt.Errorf("rate limiter: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	data, err := wp.fetcher.Download(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).ErrorWithFields("Media download failed", fields)
		return result
	}
	result.Size = len(data)

	if err := wp.store.Save(bytes.NewReader(data), job.FileName); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).ErrorWithFields("Media save failed", fields)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	fields["size"] = result.Size
	fields["duration"] = result.Duration
	wp.logger.DebugWithFields("Media saved", fields)
	return result
}
