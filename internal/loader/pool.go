package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultWorkers 为后台磁盘读取、下载与解码共用的 worker 数量。
const DefaultWorkers = 4

// ErrClosed 表示 Loader 已关闭，不再接受任务。
var ErrClosed = errors.New("loader closed")

type task func(ctx context.Context)

// workerPool 固定数量的 worker 消费无界 FIFO 队列，提交永不阻塞调用方。
type workerPool struct {
	logger *logrus.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorkerPool(workers int, logger *logrus.Logger) *workerPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &workerPool{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) Submit(t task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, t)
	p.cond.Signal()
	return nil
}

// Pending 返回尚未被 worker 取走的任务数。
func (p *workerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close 丢弃排队中的任务，取消运行中任务的 ctx 并等待 worker 退出。
func (p *workerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *workerPool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(t)
	}
}

func (p *workerPool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"action": "worker_panic",
				"panic":  fmt.Sprint(r),
			}).Error("后台任务 panic")
		}
	}()
	t(p.ctx)
}
