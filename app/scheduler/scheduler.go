package scheduler

import (
	"context"
	"sync"
	"time"

	"asset-forge/app/logger"

	"golang.org/x/sync/semaphore"
)

// tickInterval 调度循环的步进间隔
const tickInterval = 100 * time.Millisecond

// TaskInfo 任务快照，控制 API 每次轮询读取
type TaskInfo struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Visible     bool    `json:"visible"`
	Cancellable bool    `json:"cancellable"`
	Progress    float64 `json:"progress"`
	Label       string  `json:"label"`
}

// Scheduler 协作式后台任务调度器
//
// 调度本身单线程：一个 ticker 协程驱动 Tick，递减等待中锚点的
// 延迟、把到期任务交给工作协程、收割已完成任务并把它的后继
// 原子地并入锚点列表。任务体由信号量限制并发数。
type Scheduler struct {
	log *logger.Logger
	sem *semaphore.Weighted

	mu      sync.Mutex
	anchors []*Anchor
	nextID  uint64
	running bool

	stopCh chan struct{}
	tickWG sync.WaitGroup
	workWG sync.WaitGroup
}

// New 创建调度器，workers 是任务体并发上限
func New(workers int, log *logger.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		log:    log,
		sem:    semaphore.NewWeighted(int64(workers)),
		stopCh: make(chan struct{}),
	}
}

// Add 把锚点加入调度
func (s *Scheduler) Add(a *Anchor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.id = s.nextID
	s.anchors = append(s.anchors, a)
}

// Start 启动调度循环
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.tickWG.Add(1)
	go func() {
		defer s.tickWG.Done()

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-s.stopCh:
				return
			case now := <-ticker.C:
				s.Tick(now.Sub(last))
				last = now
			}
		}
	}()

	s.log.Info("任务调度器已启动")
}

// Stop 停止调度循环
//
// 先停 ticker，再取消所有任务并等待工作协程真正退出，
// 保证没有任务体在调度器销毁后还在运行。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.tickWG.Wait()

	s.mu.Lock()
	for _, a := range s.anchors {
		a.ctx.Cancel()
	}
	s.mu.Unlock()

	s.workWG.Wait()
	s.log.Info("任务调度器已停止")
}

// Tick 驱动一次调度
//
// 等待中的锚点递减延迟，到期后任务体被异步启动；运行中的锚点
// 轮询工作协程是否结束，结束后冻结最终进度、收割后继任务。
// Done 的锚点在收割后即从列表移除。
func (s *Scheduler) Tick(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next []*Anchor
	var continuations []*Anchor

	for _, a := range s.anchors {
		switch a.status {
		case StatusWaiting:
			a.delay -= elapsed
			if a.delay <= 0 {
				a.status = StatusStarted
				s.launch(a)
			}
			next = append(next, a)

		case StatusStarted:
			select {
			case <-a.done:
				a.status = StatusDone
				a.finalProgress, a.finalLabel = a.ctx.Progress()
				continuations = append(continuations, a.continuations...)
				s.log.Debugf("任务完成: %s", a.task.Name())
			default:
				next = append(next, a)
			}
		}
	}

	for _, c := range continuations {
		s.nextID++
		c.id = s.nextID
		next = append(next, c)
	}

	s.anchors = next
}

// launch 在工作协程上运行任务体，调用方必须持有 s.mu
func (s *Scheduler) launch(a *Anchor) {
	s.workWG.Add(1)
	go func() {
		defer s.workWG.Done()
		defer close(a.done)
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorf("任务 %s 崩溃: %v", a.task.Name(), r)
			}
		}()

		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.sem.Release(1)

		a.continuations = a.task.Run(a.ctx)
	}()
}

// Snapshot 返回当前所有锚点的快照
func (s *Scheduler) Snapshot() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]TaskInfo, 0, len(s.anchors))
	for _, a := range s.anchors {
		progress, label := a.ctx.Progress()
		infos = append(infos, TaskInfo{
			ID:          a.id,
			Name:        a.task.Name(),
			Status:      a.status.String(),
			Visible:     a.task.Visible(),
			Cancellable: a.task.Cancellable(),
			Progress:    progress,
			Label:       label,
		})
	}
	return infos
}

// CancelTask 取消指定锚点
//
// 还没启动的锚点直接移除，任务体永远不会运行；运行中的只置
// 取消标志，由任务体协作式退出。不可取消的任务拒绝操作。
func (s *Scheduler) CancelTask(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.anchors {
		if a.id != id {
			continue
		}
		if !a.task.Cancellable() {
			return false
		}
		switch a.status {
		case StatusWaiting:
			s.anchors = append(s.anchors[:i], s.anchors[i+1:]...)
			return true
		case StatusStarted:
			a.ctx.Cancel()
			return true
		}
		return false
	}
	return false
}

// HasTask 判断是否存在指定名字的锚点
func (s *Scheduler) HasTask(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.anchors {
		if a.task.Name() == name {
			return true
		}
	}
	return false
}

// Idle 判断调度器是否已无任务
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.anchors) == 0
}
