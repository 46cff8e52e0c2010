package relay

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/logger"
)

const (
	opUpdateSnapshot = "update_snapshot"
	opClearSnapshot  = "clear_snapshot"
)

type persistJob struct {
	op   string
	code string
	data string
}

// Persister applies snapshot writes off the broadcast path. Jobs are sharded
// by room code so writes for one room land in arrival order.
type Persister struct {
	store   SnapshotStore
	cache   SnapshotCache
	metrics Recorder
	timeout time.Duration
	log     *logrus.Entry

	mu     sync.RWMutex
	closed bool
	shards []chan persistJob
	wg     sync.WaitGroup
}

func NewPersister(store SnapshotStore, cache SnapshotCache, metrics Recorder, workers, queueSize int, timeout time.Duration) *Persister {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	p := &Persister{
		store:   store,
		cache:   cache,
		metrics: metrics,
		timeout: timeout,
		log:     logger.For("persister"),
		shards:  make([]chan persistJob, workers),
	}
	for i := range p.shards {
		p.shards[i] = make(chan persistJob, queueSize)
		p.wg.Add(1)
		go p.worker(p.shards[i])
	}
	return p
}

func (p *Persister) shardFor(code string) chan persistJob {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return p.shards[h.Sum32()%uint32(len(p.shards))]
}

// UpdateSnapshot queues a snapshot write. Returns false when dropped.
func (p *Persister) UpdateSnapshot(code, imageData string) bool {
	return p.submit(persistJob{op: opUpdateSnapshot, code: code, data: imageData})
}

// ClearSnapshot queues an empty snapshot write. Returns false when dropped.
func (p *Persister) ClearSnapshot(code string) bool {
	return p.submit(persistJob{op: opClearSnapshot, code: code})
}

func (p *Persister) submit(job persistJob) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}
	select {
	case p.shardFor(job.code) <- job:
		return true
	default:
		p.metrics.Dropped(DropPersistQueueFull)
		p.log.WithFields(logrus.Fields{"room_code": job.code, "op": job.op}).Warn("persist queue full, dropping write")
		return false
	}
}

func (p *Persister) worker(jobs <-chan persistJob) {
	defer p.wg.Done()
	for job := range jobs {
		p.apply(job)
	}
}

func (p *Persister) apply(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var (
		matched bool
		err     error
	)
	switch job.op {
	case opUpdateSnapshot:
		matched, err = p.store.UpdateSnapshot(ctx, job.code, job.data)
	case opClearSnapshot:
		matched, err = p.store.ClearSnapshot(ctx, job.code)
	}
	entry := p.log.WithFields(logrus.Fields{"room_code": job.code, "op": job.op})
	if err != nil {
		p.metrics.PersistFailure(job.op)
		entry.WithError(err).Error("snapshot persist failed")
		return
	}
	if !matched {
		entry.Debug("no room record, snapshot write dropped")
	}

	if p.cache == nil {
		return
	}
	// 저장된 값만 캐시에 남김. 방이 없으면 키도 지움
	if job.op == opClearSnapshot || !matched {
		err = p.cache.Delete(ctx, job.code)
	} else {
		err = p.cache.Set(ctx, job.code, job.data)
	}
	if err != nil {
		entry.WithError(err).Warn("snapshot cache update failed")
	}
}

// Close stops accepting jobs and waits for queued ones until ctx expires.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for _, ch := range p.shards {
			close(ch)
		}
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
