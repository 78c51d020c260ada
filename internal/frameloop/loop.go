// Package frameloop — презентационный цикл, вызывающий Tick всех
// зарегистрированных систем раз в кадр.
package frameloop

import (
	"context"
	"log"
	"time"
)

// Loop — главный цикл кадров.
type Loop struct {
	systems []System
	frame   time.Duration
}

// NewLoop создаёт цикл с заданной длительностью кадра.
func NewLoop(frame time.Duration, deps Dependencies, systems ...System) *Loop {
	// Инициализируем все системы
	for _, s := range systems {
		if err := s.Init(deps); err != nil {
			log.Printf("[FrameLoop] init %s error: %v", s.Name(), err)
		}
	}
	return &Loop{systems: systems, frame: frame}
}

// Run запускает бесконечный цикл до отмены ctx.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case t := <-ticker.C:
			dt := t.Sub(last)
			last = t
			for _, s := range l.systems {
				func(sys System) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("[FrameLoop] panic in %s: %v", sys.Name(), r)
						}
					}()
					sys.Tick(ctx, dt)
				}(s)
			}
		case <-ctx.Done():
			log.Println("[FrameLoop] stopped")
			return
		}
	}
}

// Step выполняет один кадр вручную (пошаговые тесты и инструменты).
func (l *Loop) Step(ctx context.Context, dt time.Duration) {
	for _, s := range l.systems {
		s.Tick(ctx, dt)
	}
}
