package anim

import "container/heap"

// queuedItem pairs a task with its transition lifecycle. Bare tasks
// have a nil plan and run synchronously.
type queuedItem struct {
	task       Task
	plan       *Plan
	completion func()
	seq        uint64
}

// taskQueue is a stable priority queue: descending priority, ties in
// insertion order.
type taskQueue []*queuedItem

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].task.Priority != q[j].task.Priority {
		return q[i].task.Priority > q[j].task.Priority
	}

	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) {
	*q = append(*q, x.(*queuedItem))
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return item
}

func (q *taskQueue) push(item *queuedItem) {
	heap.Push(q, item)
}

func (q *taskQueue) pop() *queuedItem {
	if q.Len() == 0 {
		return nil
	}

	return heap.Pop(q).(*queuedItem)
}

func (q *taskQueue) clear() {
	*q = (*q)[:0]
}
