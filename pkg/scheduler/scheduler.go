package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"osskit/pkg/core/logger"
)

var ErrNotRunning = errors.New("调度器未运行")

// busyRetryDelay 工作者池满时任务推迟的时间
const busyRetryDelay = time.Second

// Scheduler 本地任务调度器，定时器总是对准队首任务的执行时间
type Scheduler struct {
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	queue   *taskQueue
	workers chan struct{}
	// dispatchMu 保证Stop之后不再有任务被派发
	dispatchMu sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer

	log *logger.Log

	total       atomic.Int64
	completed   atomic.Int64
	failed      atomic.Int64
	lastExecute atomic.Int64
}

// SchedulerStats 调度器统计快照
type SchedulerStats struct {
	TotalTasks      int64     `json:"totalTasks"`
	CompletedTasks  int64     `json:"completedTasks"`
	FailedTasks     int64     `json:"failedTasks"`
	PendingTasks    int       `json:"pendingTasks"`
	LastExecuteTime time.Time `json:"lastExecuteTime"`
}

type SchedulerConfig struct {
	// MaxWorkers 同时执行的任务数上限
	MaxWorkers int `json:"maxWorkers"`
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{MaxWorkers: 4}
}

func NewScheduler(config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	workers := config.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		queue:   newTaskQueue(),
		workers: make(chan struct{}, workers),
		log:     logger.GetLogger().WithEntryName("Scheduler"),
	}
}

func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.log.WithField("workers", cap(s.workers)).Info("调度器已启动")
	s.armTimer()
	return nil
}

// Stop 停止调度器，等待执行中的任务结束
func (s *Scheduler) Stop() error {
	s.dispatchMu.Lock()
	stopped := s.running.CompareAndSwap(true, false)
	s.dispatchMu.Unlock()
	if !stopped {
		return nil
	}
	s.cancel()
	s.disarmTimer()
	s.wg.Wait()
	s.log.Info("调度器已停止")
	return nil
}

// Healthy 供健康检查使用
func (s *Scheduler) Healthy() error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	return nil
}

func (s *Scheduler) AddTask(task Task) error {
	if !s.running.Load() {
		return ErrNotRunning
	}

	s.queue.push(task)
	s.total.Add(1)
	s.log.WithField("task", task.GetName()).WithField("taskId", task.GetID()).
		WithField("nextTime", task.GetNextTime().Format(time.DateTime)).Info("添加任务")

	s.armTimer()
	return nil
}

// RemoveTask 只能移除等待中的任务，执行中的任务结束后不再入队
func (s *Scheduler) RemoveTask(taskID string) bool {
	if !s.queue.remove(taskID) {
		return false
	}
	s.log.WithField("taskId", taskID).Info("移除任务")
	s.armTimer()
	return true
}

// ListTasks 列出等待中的任务
func (s *Scheduler) ListTasks() []Task {
	return s.queue.list()
}

func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		TotalTasks:     s.total.Load(),
		CompletedTasks: s.completed.Load(),
		FailedTasks:    s.failed.Load(),
		PendingTasks:   s.queue.size(),
	}
	if last := s.lastExecute.Load(); last > 0 {
		stats.LastExecuteTime = time.Unix(0, last)
	}
	return stats
}

// armTimer 按队首任务的执行时间重置定时器
func (s *Scheduler) armTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.running.Load() {
		return
	}
	next, ok := s.queue.nextTime()
	if !ok {
		return
	}
	s.timer = time.AfterFunc(max(time.Until(next), 0), s.fire)
}

func (s *Scheduler) disarmTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire() {
	s.dispatchMu.Lock()
	if !s.running.Load() {
		s.dispatchMu.Unlock()
		return
	}
	for _, task := range s.queue.popDue(time.Now()) {
		s.dispatch(task)
	}
	s.dispatchMu.Unlock()
	s.armTimer()
}

func (s *Scheduler) dispatch(task Task) {
	select {
	case s.workers <- struct{}{}:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.workers }()
			s.run(task)
		}()
	default:
		s.log.WithField("taskId", task.GetID()).Warn("工作者池已满，任务推迟执行")
		s.requeue(task, time.Now().Add(busyRetryDelay))
	}
}

func (s *Scheduler) run(task Task) {
	start := time.Now()
	log := s.log.WithField("task", task.GetName()).WithField("taskId", task.GetID())
	log.Debug("开始执行任务")

	ctx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()
	err := task.Execute(ctx)

	s.lastExecute.Store(start.UnixNano())
	log = log.WithField("duration", time.Since(start).String())
	if err != nil {
		s.failed.Add(1)
		log.WithErr(err).Error("任务执行失败")
	} else {
		s.completed.Add(1)
		log.Info("任务执行成功")
	}

	if !task.IsCompleted() {
		s.requeue(task, time.Now())
	}
}

// requeue 周期任务计算下次执行时间后重新入队
func (s *Scheduler) requeue(task Task, from time.Time) {
	if !s.running.Load() || task.IsCompleted() {
		return
	}
	if task.UpdateNextTime(from).IsZero() {
		return
	}
	task.SetStatus(TaskStatusWaiting)
	s.queue.push(task)
	s.armTimer()
}
