// Package scheduler — мост между презентационным и world-контекстом.
// Gate гарантирует не больше одной продукции снапшота в полёте, WorldQueue
// исполняет задачи в единственной горутине world-контекста.
package scheduler

import (
	"context"
	"log"
	"sync/atomic"
)

// Gate — атомарный single-flight флаг. Неудачная попытка взвести флаг —
// тихий no-op на стороне вызывающего.
type Gate struct {
	inFlight atomic.Bool
}

// TryAcquire пытается взвести флаг. true — вызывающий владеет полётом и
// обязан в итоге вызвать Release; false — продукция уже в полёте.
func (g *Gate) TryAcquire() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// Release снимает флаг. Вызывается по завершении продукции — через defer,
// чтобы флаг снялся и при раннем выходе, и при панике.
func (g *Gate) Release() {
	g.inFlight.Store(false)
}

// InFlight сообщает текущее состояние флага (для тестов и статистики).
func (g *Gate) InFlight() bool {
	return g.inFlight.Load()
}

// WorldQueue — очередь задач world-контекста. Run запускается в
// выделенной горутине; все задачи исполняются последовательно в ней,
// поэтому world-состояние читается без дополнительной синхронизации.
type WorldQueue struct {
	tasks chan func()
}

// NewWorldQueue создаёт очередь с буфером на capacity задач.
func NewWorldQueue(capacity int) *WorldQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WorldQueue{tasks: make(chan func(), capacity)}
}

// Submit ставит задачу в очередь без блокировки. false — очередь полна,
// задача не принята (вызывающий сам откатывает своё состояние).
func (q *WorldQueue) Submit(task func()) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		return false
	}
}

// Run исполняет задачи до отмены ctx. Паника задачи не роняет контекст:
// как и в игровом цикле, она логируется и исполнение продолжается.
func (q *WorldQueue) Run(ctx context.Context) {
	for {
		select {
		case task := <-q.tasks:
			runTask(task)
		case <-ctx.Done():
			return
		}
	}
}

// RunPending синхронно исполняет все накопленные задачи. Используется,
// когда world-контекст и презентация живут в одном потоке (тесты,
// пошаговая симуляция).
func (q *WorldQueue) RunPending() {
	for {
		select {
		case task := <-q.tasks:
			runTask(task)
		default:
			return
		}
	}
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WorldQueue] panic in task: %v", r)
		}
	}()
	task()
}
