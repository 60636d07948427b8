package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// taskHeap 按下次执行时间排序的最小堆
type taskHeap []Task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].GetNextTime().Before(h[j].GetNextTime()) }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(Task))
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}

// taskQueue 并发安全的待执行队列，同一任务ID只保留一份
type taskQueue struct {
	mu    sync.Mutex
	tasks taskHeap
}

func newTaskQueue() *taskQueue {
	return &taskQueue{}
}

func (q *taskQueue) indexOf(taskID string) int {
	for i, task := range q.tasks {
		if task.GetID() == taskID {
			return i
		}
	}
	return -1
}

// push 任务已在队列中时按新的执行时间调整位置
func (q *taskQueue) push(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(task.GetID()); i >= 0 {
		q.tasks[i] = task
		heap.Fix(&q.tasks, i)
		return
	}
	heap.Push(&q.tasks, task)
}

func (q *taskQueue) remove(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexOf(taskID)
	if i < 0 {
		return false
	}
	heap.Remove(&q.tasks, i)
	return true
}

func (q *taskQueue) list() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Task(nil), q.tasks...)
}

func (q *taskQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// nextTime 队首任务的执行时间，队列为空时 ok 为 false
func (q *taskQueue) nextTime() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return time.Time{}, false
	}
	return q.tasks[0].GetNextTime(), true
}

// popDue 取出所有在 now 之前到期的任务
func (q *taskQueue) popDue(now time.Time) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []Task
	for len(q.tasks) > 0 && q.tasks[0].CanExecute(now) {
		due = append(due, heap.Pop(&q.tasks).(Task))
	}
	return due
}
