package frameloop

import (
	"context"
	"log"
	"time"
)

// StatsSystem периодически пишет счётчики конвейера в лог.
type StatsSystem struct {
	deps  Dependencies
	ticks int64
	every int64
}

// NewStatsSystem создаёт систему со сбросом статистики каждые every кадров.
func NewStatsSystem(every int64) *StatsSystem {
	if every < 1 {
		every = 600
	}
	return &StatsSystem{every: every}
}

// Name возвращает имя системы.
func (s *StatsSystem) Name() string { return "stats" }

// Init сохраняет зависимости.
func (s *StatsSystem) Init(deps Dependencies) error {
	s.deps = deps
	return nil
}

// Tick логирует статистику раз в every кадров.
func (s *StatsSystem) Tick(ctx context.Context, dt time.Duration) {
	s.ticks++
	if s.ticks%s.every != 0 || s.deps.Pipeline == nil {
		return
	}
	log.Printf("[StatsSystem.Tick] pipeline stats at tick=%d: %+v", s.ticks, s.deps.Pipeline.StatsMap())
}
