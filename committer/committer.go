// Copyright (c) YugaByte, Inc.

// Package committer batches tablet changesets and writes them to the
// metadata table with bounded memory, latency, and parallelism.
package committer

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/yugabyte/tabletmeta/metadata"
	"github.com/yugabyte/tabletmeta/metric"
	"github.com/yugabyte/tabletmeta/state"
	"github.com/yugabyte/tabletmeta/util"
)

// Config bounds the resources of one BatchCommitter.
type Config struct {
	// MaxMemory is the buffered mutation size that forces a flush.
	MaxMemory int64
	// MaxLatency bounds how long a buffered changeset may sit before a
	// forced flush.
	MaxLatency time.Duration
	// Workers is the fixed parallelism of outbound writes.
	Workers int
	// StoreName labels log entries and metrics.
	StoreName string
}

// ConfigFromUtil reads the committer bounds from the shared config.
func ConfigFromUtil(config *util.Config, storeName string) Config {
	return Config{
		MaxMemory:  config.GetInt64(util.CommitterMaxMemoryKey),
		MaxLatency: config.GetDuration(util.CommitterMaxLatencyKey, time.Millisecond),
		Workers:    config.GetInt(util.CommitterWorkersKey),
		StoreName:  storeName,
	}
}

// BatchCommitter accumulates changesets and applies them to the metadata
// table through a fixed pool of workers. One committer serves one logical
// commit batch; it is not reusable after Close.
type BatchCommitter struct {
	client metadata.Client
	cfg    Config
	log    util.Logger
	ctx    context.Context

	mu       sync.Mutex
	buf      []metadata.Mutation
	bufBytes int64
	closed   bool

	work     chan []metadata.Mutation
	workers  sync.WaitGroup
	inflight sync.WaitGroup
	stopTick chan struct{}
	tickDone chan struct{}

	errMu sync.Mutex
	errs  *multierror.Error
}

// New starts a committer over the shared client. The client is borrowed, not
// owned; Close never closes it.
func New(
	ctx context.Context,
	client metadata.Client,
	cfg Config,
	log util.Logger,
) (*BatchCommitter, error) {
	if client == nil {
		return nil, errors.New("batch committer requires a metadata client")
	}
	if cfg.MaxMemory <= 0 || cfg.MaxLatency <= 0 || cfg.Workers <= 0 {
		return nil, errors.Errorf(
			"invalid committer config: max memory %d, max latency %v, workers %d",
			cfg.MaxMemory, cfg.MaxLatency, cfg.Workers)
	}
	c := &BatchCommitter{
		client:   client,
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		work:     make(chan []metadata.Mutation),
		stopTick: make(chan struct{}),
		tickDone: make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		c.workers.Add(1)
		go c.worker()
	}
	go c.latencyLoop()
	return c, nil
}

// Add buffers one changeset for commit. It returns any failure already
// recorded by the workers so callers stop early instead of piling work onto
// a broken batch.
func (c *BatchCommitter) Add(cs state.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	if err := c.recordedError(); err != nil {
		return err
	}
	mutation := translate(cs)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("batch committer is closed")
	}
	c.buf = append(c.buf, mutation)
	c.bufBytes += mutation.Size()
	var batch []metadata.Mutation
	if c.bufBytes >= c.cfg.MaxMemory {
		batch = c.takeLocked()
	}
	c.mu.Unlock()

	c.dispatch(batch)
	return nil
}

// Flush blocks until every buffered changeset is acknowledged, and reports
// any failure recorded so far.
func (c *BatchCommitter) Flush() error {
	c.mu.Lock()
	batch := c.takeLocked()
	c.mu.Unlock()
	c.dispatch(batch)
	c.inflight.Wait()
	return c.recordedError()
}

// Close flushes the remainder, waits for all workers, and returns the
// aggregate of every recorded write failure. Idempotent; resources are
// released on every path.
func (c *BatchCommitter) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.recordedError()
	}
	c.closed = true
	batch := c.takeLocked()
	c.mu.Unlock()

	// Join the latency goroutine before draining. It may hold a detached
	// batch with a pending dispatch; waiting here keeps that dispatch ordered
	// before the inflight wait and the work channel close.
	close(c.stopTick)
	<-c.tickDone
	c.dispatch(batch)
	c.inflight.Wait()
	close(c.work)
	c.workers.Wait()
	return c.recordedError()
}

func (c *BatchCommitter) worker() {
	defer c.workers.Done()
	for batch := range c.work {
		start := time.Now()
		err := c.client.Apply(c.ctx, batch)
		metric.GetInstance().PublishFlushStats(
			c.cfg.StoreName, len(batch), time.Since(start), err != nil)
		if err != nil {
			c.log.Errorf("Failed to commit %d tablet mutations for %s: %v",
				len(batch), c.cfg.StoreName, err)
			c.recordError(err)
		}
		c.inflight.Done()
	}
}

func (c *BatchCommitter) latencyLoop() {
	defer close(c.tickDone)
	ticker := time.NewTicker(c.cfg.MaxLatency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			batch := c.takeLocked()
			c.mu.Unlock()
			c.dispatch(batch)
		case <-c.stopTick:
			return
		}
	}
}

// takeLocked detaches the buffer; callers hold c.mu.
func (c *BatchCommitter) takeLocked() []metadata.Mutation {
	batch := c.buf
	c.buf = nil
	c.bufBytes = 0
	return batch
}

func (c *BatchCommitter) dispatch(batch []metadata.Mutation) {
	if len(batch) == 0 {
		return
	}
	c.inflight.Add(1)
	c.work <- batch
}

func (c *BatchCommitter) recordError(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.errs = multierror.Append(c.errs, err)
}

func (c *BatchCommitter) recordedError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.errs.ErrorOrNil()
}

// translate turns a changeset into the table's native mutation format.
func translate(cs state.Changeset) metadata.Mutation {
	mutation := metadata.Mutation{Row: cs.Row()}
	for _, edit := range cs.Edits() {
		switch edit.Kind {
		case state.EditPut:
			mutation.Puts = append(mutation.Puts, metadata.Column{
				Family:    edit.Family,
				Qualifier: edit.Qualifier,
				Value:     edit.Value,
			})
		case state.EditDelete:
			mutation.Deletes = append(mutation.Deletes, metadata.ColumnRef{
				Family:    edit.Family,
				Qualifier: edit.Qualifier,
			})
		}
	}
	return mutation
}
