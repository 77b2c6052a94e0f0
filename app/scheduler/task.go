package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status 任务锚点状态，只会单向前进：等待 → 运行 → 完成
type Status int32

const (
	StatusWaiting Status = iota // 等待启动，延迟尚未耗尽
	StatusStarted               // 任务体在工作协程上运行中
	StatusDone                  // 终态
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusStarted:
		return "started"
	case StatusDone:
		return "done"
	}
	return "unknown"
}

// Task 后台任务
type Task interface {
	// Name 人类可读的任务名
	Name() string
	// Cancellable 是否允许用户取消
	Cancellable() bool
	// Visible 是否在界面上展示
	Visible() bool
	// Run 执行任务体，返回需要在本任务完成后入队的后继任务。
	// 取消通过 ctx 协作式检查，不会被强行中断。
	Run(ctx *Context) []*Anchor
}

// Context 任务运行上下文
//
// 任务体在工作协程上随时写进度，界面线程每次轮询都会读，
// 所以进度字段由互斥锁保护；取消标志是单调的原子布尔。
type Context struct {
	mu        sync.Mutex
	progress  float64
	label     string
	cancelled atomic.Bool
}

// SetProgress 上报进度（0..1）和进度标签
func (c *Context) SetProgress(fraction float64, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = fraction
	c.label = label
}

// Progress 读取当前进度
func (c *Context) Progress() (float64, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress, c.label
}

// Cancel 请求取消，标志只会从 false 变为 true
func (c *Context) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled 任务体在循环中协作式检查
func (c *Context) Cancelled() bool {
	return c.cancelled.Load()
}

// Anchor 任务的调度包装，持有延迟和状态等调度元数据
//
// 锚点由调度器独占持有，status 只在调度器的 Tick 中变更；
// continuations 由工作协程在任务体返回后写入，done 关闭之后
// 调度器才会读取。
type Anchor struct {
	id            uint64
	task          Task
	delay         time.Duration
	status        Status
	ctx           *Context
	done          chan struct{}
	continuations []*Anchor
	// Done 之后冻结的最终进度，供最后一次展示
	finalProgress float64
	finalLabel    string
}

// NewAnchor 创建任务锚点，delay 为启动前的等待时间
func NewAnchor(task Task, delay time.Duration) *Anchor {
	return &Anchor{
		task:  task,
		delay: delay,
		ctx:   &Context{},
		done:  make(chan struct{}),
	}
}

// ID 调度器分配的锚点编号
func (a *Anchor) ID() uint64 {
	return a.id
}

// Task 返回被包装的任务
func (a *Anchor) Task() Task {
	return a.task
}

// Cancel 请求取消任务
func (a *Anchor) Cancel() {
	a.ctx.Cancel()
}
