package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskType 任务类型
type TaskType int

const (
	// TaskTypeOnce 一次性任务
	TaskTypeOnce TaskType = iota
	// TaskTypeInterval 固定间隔任务
	TaskTypeInterval
	// TaskTypeCron 基于Cron表达式的任务
	TaskTypeCron
)

// TaskStatus 任务状态
type TaskStatus int

const (
	TaskStatusWaiting TaskStatus = iota
	TaskStatusRunning
	TaskStatusCompleted
	TaskStatusFailed
	TaskStatusCanceled
)

// TaskFunc 任务执行函数
type TaskFunc func(ctx context.Context) error

// Task 任务接口
type Task interface {
	GetID() string
	GetName() string
	GetType() TaskType
	GetNextTime() time.Time
	GetTimeout() time.Duration

	Execute(ctx context.Context) error

	// UpdateNextTime 按当前时间计算并返回下次执行时间
	UpdateNextTime(currentTime time.Time) time.Time

	CanExecute(currentTime time.Time) bool
	IsCompleted() bool
	GetStatus() TaskStatus
	SetStatus(status TaskStatus)
}

// BaseTask 基础任务实现，执行期间任务不在堆中，状态只由执行它的goroutine修改
type BaseTask struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       TaskType      `json:"type"`
	Status     TaskStatus    `json:"status"`
	NextTime   time.Time     `json:"next_time"`
	Timeout    time.Duration `json:"timeout"`
	Func       TaskFunc      `json:"-"`
	CreateTime time.Time     `json:"create_time"`
	UpdateTime time.Time     `json:"update_time"`
}

func newBaseTask(name string, taskType TaskType, nextTime time.Time, timeout time.Duration, fn TaskFunc) *BaseTask {
	now := time.Now()
	return &BaseTask{
		ID:         uuid.New().String(),
		Name:       name,
		Type:       taskType,
		Status:     TaskStatusWaiting,
		NextTime:   nextTime,
		Timeout:    timeout,
		Func:       fn,
		CreateTime: now,
		UpdateTime: now,
	}
}

func (t *BaseTask) GetID() string {
	return t.ID
}

func (t *BaseTask) GetName() string {
	return t.Name
}

func (t *BaseTask) GetType() TaskType {
	return t.Type
}

func (t *BaseTask) GetNextTime() time.Time {
	return t.NextTime
}

// GetTimeout 未设置时默认30秒
func (t *BaseTask) GetTimeout() time.Duration {
	if t.Timeout <= 0 {
		return 30 * time.Second
	}
	return t.Timeout
}

// Execute 执行任务，一次性任务无论成功与否都只执行一次
func (t *BaseTask) Execute(ctx context.Context) error {
	t.SetStatus(TaskStatusRunning)
	var err error
	if t.Func != nil {
		err = t.Func(ctx)
	}

	switch {
	case t.Type == TaskTypeOnce:
		t.SetStatus(TaskStatusCompleted)
	case err != nil:
		t.SetStatus(TaskStatusFailed)
	default:
		t.SetStatus(TaskStatusWaiting)
	}

	return err
}

func (t *BaseTask) CanExecute(currentTime time.Time) bool {
	return t.Status == TaskStatusWaiting && !currentTime.Before(t.NextTime)
}

func (t *BaseTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCanceled
}

func (t *BaseTask) GetStatus() TaskStatus {
	return t.Status
}

func (t *BaseTask) SetStatus(status TaskStatus) {
	t.Status = status
	t.UpdateTime = time.Now()
}

// OnceTask 一次性任务
type OnceTask struct {
	*BaseTask
}

func NewOnceTask(name string, executeTime time.Time, timeout time.Duration, fn TaskFunc) *OnceTask {
	return &OnceTask{BaseTask: newBaseTask(name, TaskTypeOnce, executeTime, timeout, fn)}
}

// UpdateNextTime 只在推迟执行时后移，不会提前
func (t *OnceTask) UpdateNextTime(currentTime time.Time) time.Time {
	if currentTime.After(t.NextTime) {
		t.NextTime = currentTime
		t.UpdateTime = time.Now()
	}
	return t.NextTime
}

// IntervalTask 固定间隔任务，间隔从上次执行结束算起
type IntervalTask struct {
	*BaseTask
	Interval time.Duration `json:"interval"`
}

func NewIntervalTask(name string, startTime time.Time, interval time.Duration, timeout time.Duration, fn TaskFunc) *IntervalTask {
	return &IntervalTask{
		BaseTask: newBaseTask(name, TaskTypeInterval, startTime, timeout, fn),
		Interval: interval,
	}
}

func (t *IntervalTask) UpdateNextTime(currentTime time.Time) time.Time {
	t.NextTime = currentTime.Add(t.Interval)
	t.UpdateTime = time.Now()
	return t.NextTime
}

// CronTask 基于Cron表达式的任务，表达式带秒字段
type CronTask struct {
	*BaseTask
	CronExpr string        `json:"cron_expr"`
	schedule cron.Schedule `json:"-"`
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func NewCronTask(name string, cronExpr string, timeout time.Duration, fn TaskFunc) (*CronTask, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	return &CronTask{
		BaseTask: newBaseTask(name, TaskTypeCron, schedule.Next(time.Now()), timeout, fn),
		CronExpr: cronExpr,
		schedule: schedule,
	}, nil
}

func (t *CronTask) UpdateNextTime(currentTime time.Time) time.Time {
	t.NextTime = t.schedule.Next(currentTime)
	t.UpdateTime = time.Now()
	return t.NextTime
}
