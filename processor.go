// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/sassoftware/viya-pdf-view/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PageMatches are the search matches found on one page.
type PageMatches struct {
	Page    int
	Matches []SearchMatch
}

// FailurePolicy decides what a failed page does to the whole batch.
type FailurePolicy interface {
	PageFailed(page int, err error) error
}

// StrictPolicy fails the batch on the first page error.
type StrictPolicy struct{}

func (StrictPolicy) PageFailed(page int, err error) error { return err }

// BestEffortPolicy logs the failed page and skips it.
type BestEffortPolicy struct{}

func (BestEffortPolicy) PageFailed(page int, err error) error {
	logger.Debug(fmt.Sprintf("BestEffortPolicy: skipping page: page=%d err=%v", page+1, err), true)
	return nil
}

// Processor searches and extracts text from whole documents. Each worker
// opens its own Document so pages are processed in parallel without sharing
// a handle.
type Processor struct {
	cfg    *Config
	sem    *semaphore.Weighted
	policy FailurePolicy
}

// NewProcessor validates the config and creates a new processor. It panics
// on an invalid config.
func NewProcessor(cfg *Config) *Processor {
	var policy FailurePolicy
	switch cfg.ParsingMode {
	case Strict:
		policy = StrictPolicy{}
	case BestEffort:
		policy = BestEffortPolicy{}
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	cfg.installLogger()

	logger.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_docs=%d, max_workers_per_doc=%d",
		cfg.ParsingMode, cfg.MaxConcurrentDocs, cfg.MaxWorkersPerDoc), true)

	return &Processor{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
		policy: policy,
	}
}

type pageResult struct {
	index   int
	matches []SearchMatch
	text    string
	skipped bool
	err     error
}

// pageWork runs one page on a worker's own handle.
type pageWork func(doc *Document, index int) pageResult

// batch is one document being processed: a slot in the semaphore and one
// open handle per worker.
type batch struct {
	p     *Processor
	path  string
	docs  []*Document
	total int

	mu   sync.Mutex
	busy map[*Document]bool // handles left running a timed out page
}

// SearchDocument searches every page of path and returns the matches in
// page order. A page running longer than Config.WorkerTimeout fails with
// ErrTextExtraction; its handle is closed in the background once the page
// returns, so SearchDocument does not wait for it.
func (p *Processor) SearchDocument(ctx context.Context, path, query string) ([]SearchMatch, error) {
	logger.Debug(fmt.Sprintf("Starting search: path=%s", path), true)
	b, err := p.start(ctx, path)
	if err != nil {
		return nil, err
	}

	var all []SearchMatch
	err = b.run(ctx, searchWork(query), func(r pageResult) error {
		all = append(all, r.matches...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("Search completed: path=%s matches=%d", path, len(all)), true)
	return all, nil
}

// SearchAsStream searches every page of path and sends each page that has
// matches on the returned channel, in page order. The channel is closed
// when the document is done or ctx is cancelled. In strict mode a page
// error ends the stream early.
func (p *Processor) SearchAsStream(ctx context.Context, path, query string) (<-chan PageMatches, error) {
	logger.Debug(fmt.Sprintf("Starting streaming search: path=%s", path), true)
	b, err := p.start(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(chan PageMatches)
	go func() {
		defer close(out)
		err := b.run(ctx, searchWork(query), func(r pageResult) error {
			if len(r.matches) == 0 {
				return nil
			}
			select {
			case out <- PageMatches{Page: r.index, Matches: r.matches}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		logger.Debug(fmt.Sprintf("Streaming search completed: path=%s err=%v", path, err), true)
	}()
	return out, nil
}

// ExtractDocumentText returns the text of every page of path in order.
// Timed out pages are handled as in SearchDocument.
func (p *Processor) ExtractDocumentText(ctx context.Context, path string) (string, error) {
	logger.Debug(fmt.Sprintf("Starting extraction: path=%s", path), true)
	b, err := p.start(ctx, path)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	err = b.run(ctx, textWork, func(r pageResult) error {
		out.WriteString(r.text)
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.Debug(fmt.Sprintf("Extraction completed: path=%s total_chars=%d", path, out.Len()), true)
	return out.String(), nil
}

// Metadata writes the document information of path to w as indented JSON.
func (p *Processor) Metadata(ctx context.Context, path string, w io.Writer) error {
	logger.Debug(fmt.Sprintf("Reading metadata: path=%s", path), true)
	if err := p.acquireSlot(ctx); err != nil {
		return err
	}
	defer p.sem.Release(1)

	doc, err := Open(p.cfg, Source{Path: path}, CropBox, "")
	if err != nil {
		logger.Error(fmt.Sprintf("failed to open PDF for metadata: path=%s err=%v", path, err))
		return err
	}
	defer doc.Close()

	md, err := doc.Metadata()
	if err != nil {
		logger.Error(fmt.Sprintf("failed to read metadata: path=%s err=%v", path, err))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(md)
}

func searchWork(query string) pageWork {
	return func(doc *Document, index int) pageResult {
		m, err := doc.Search(index, query)
		return pageResult{index: index, matches: m, err: err}
	}
}

func textWork(doc *Document, index int) pageResult {
	text, err := doc.ExtractText(index)
	return pageResult{index: index, text: text, err: err}
}

// start takes a slot and opens one handle per worker. The slot and the
// handles are released by run.
func (p *Processor) start(ctx context.Context, path string) (*batch, error) {
	if err := p.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return nil, err
	}
	b := &batch{p: p, path: path}

	first, err := Open(p.cfg, Source{Path: path}, CropBox, "")
	if err != nil {
		logger.Debug(fmt.Sprintf("Failed to open PDF: path=%s err=%v", path, err), true)
		p.sem.Release(1)
		return nil, err
	}
	b.docs = append(b.docs, first)
	b.total, _ = first.PageCount()
	logger.Debug(fmt.Sprintf("Total pages detected: path=%s pages=%d", path, b.total), true)

	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerDoc, b.total)
	for len(b.docs) < numWorkers {
		doc, err := Open(p.cfg, Source{Path: path}, CropBox, "")
		if err != nil {
			b.release()
			return nil, err
		}
		b.docs = append(b.docs, doc)
	}
	return b, nil
}

// abandon marks doc as still running a page that timed out.
func (b *batch) abandon(doc *Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy == nil {
		b.busy = map[*Document]bool{}
	}
	b.busy[doc] = true
}

// release closes the handles and frees the slot. Busy handles are closed
// in the background since Close waits for the running page.
func (b *batch) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range b.docs {
		if b.busy[doc] {
			logger.Debug(fmt.Sprintf("Closing busy handle in background: path=%s", b.path), true)
			go doc.Close()
			continue
		}
		doc.Close()
	}
	b.docs = nil
	b.p.sem.Release(1)
}

// run distributes the pages over the workers and hands the results to emit
// in page order. Skipped pages are not emitted.
func (b *batch) run(ctx context.Context, work pageWork, emit func(pageResult) error) error {
	defer b.release()
	if b.total == 0 {
		logger.Debug(fmt.Sprintf("No pages found in PDF: path=%s", b.path), true)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	jobs, results := make(chan int), make(chan pageResult, b.total)
	g.Go(func() error {
		defer close(jobs)
		return b.p.feedJobs(gctx, b.total, jobs)
	})
	logger.Debug(fmt.Sprintf("Spawning workers: num_workers=%d", len(b.docs)), true)
	for id, doc := range b.docs {
		id, doc := id, doc
		g.Go(func() error {
			return b.p.worker(gctx, id+1, doc, work, jobs, results, b.abandon)
		})
	}

	errc := make(chan error, 1)
	go func() {
		errc <- g.Wait()
		close(results)
	}()

	emitErr := b.p.emitInOrder(results, emit)
	if emitErr != nil {
		cancel()
	}
	waitErr := <-errc
	for range results {
	}
	if emitErr != nil {
		return emitErr
	}
	return waitErr
}

func (p *Processor) emitInOrder(results <-chan pageResult, emit func(pageResult) error) error {
	pageBuffer := make(map[int]pageResult)
	nextPage := 0
	for res := range results {
		pageBuffer[res.index] = res

		// Emit in-order pages immediately
		for {
			r, ok := pageBuffer[nextPage]
			if !ok {
				break
			}
			delete(pageBuffer, nextPage)
			nextPage++
			if r.skipped {
				continue
			}
			if err := emit(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}

func (p *Processor) adjustWorkerCount(maxWorkers, pages int) int {
	maxWorkers = min(maxWorkers, runtime.NumCPU(), pages)
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	logger.Debug(fmt.Sprintf("Adjusted worker count: workers=%d", maxWorkers), true)
	return maxWorkers
}

func (p *Processor) worker(ctx context.Context, id int, doc *Document, work pageWork, jobs <-chan int, results chan<- pageResult, abandon func(*Document)) error {
	logger.Debug(fmt.Sprintf("Worker started: id=%d", id), true)
	for i := range jobs {
		res, running := p.runPage(ctx, doc, i, work)
		if running {
			abandon(doc)
		}
		if res.err != nil {
			logger.Debug(fmt.Sprintf("Worker: page error: worker_id=%d page=%d err=%v", id, i+1, res.err), true)
			if err := p.policy.PageFailed(i, res.err); err != nil {
				return err
			}
			res.skipped, res.err = true, nil
		}
		results <- res
	}
	logger.Debug(fmt.Sprintf("Worker finished: id=%d", id), true)
	return nil
}

// runPage bounds one page by WorkerTimeout. Document operations cannot be
// interrupted, so a page that times out keeps its worker's handle busy until
// it returns; the handle's mutex holds the next job back. running reports
// that the page was left running.
func (p *Processor) runPage(ctx context.Context, doc *Document, index int, work pageWork) (res pageResult, running bool) {
	ctxPage, cancel := context.WithTimeout(ctx, p.cfg.WorkerTimeout)
	defer cancel()

	done := make(chan pageResult, 1)
	go func() { done <- work(doc, index) }()
	select {
	case res := <-done:
		return res, false
	case <-ctxPage.Done():
		err := ctxPage.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Debug(fmt.Sprintf("Page timed out: page=%d timeout=%v", index+1, p.cfg.WorkerTimeout), true)
		}
		return pageResult{index: index, err: pageError("process", index, ErrTextExtraction, err)}, true
	}
}

func (p *Processor) feedJobs(ctx context.Context, total int, jobs chan<- int) error {
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			logger.Debug("Context cancelled while feeding jobs", true)
			return ctx.Err()
		case jobs <- i:
			logger.Debug(fmt.Sprintf("Job queued: page=%d", i+1), true)
		}
	}
	logger.Debug(fmt.Sprintf("All jobs queued: total_pages=%d", total), true)
	return nil
}
