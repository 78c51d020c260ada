// Package stats собирает счётчики работы конвейера. Счётчики атомарные:
// их инкрементируют оба контекста, а читает кто угодно (демо-HUD,
// периодический лог, expvar).
package stats

import (
	"expvar"
	"sync/atomic"
)

// Counters — счётчики конвейера за время жизни процесса.
type Counters struct {
	SnapshotsProduced   atomic.Uint64 // завершённые прогоны продюсера
	SnapshotsEmpty      atomic.Uint64 // продукции, закончившиеся очисткой обмена
	RecordsProduced     atomic.Uint64 // суммарное число записей в снапшотах
	UpdatesSkipped      atomic.Uint64 // RequestUpdate при уже взведённом флаге
	OcclusionChecks     atomic.Uint64 // реальные вызовы проверки видимости
	OcclusionCacheHits  atomic.Uint64 // переиспользования троттл-кеша
	CacheEvictions      atomic.Uint64 // вычищенные записи презентационного кеша
	FramesRendered      atomic.Uint64 // тики презентационного контекста
	TransformsEmitted   atomic.Uint64 // выданные DisplayTransform
	LastSnapshotRecords atomic.Uint64 // размер последнего снапшота
}

// Snapshot — мгновенный срез счётчиков для отображения.
type Snapshot struct {
	SnapshotsProduced   uint64
	SnapshotsEmpty      uint64
	RecordsProduced     uint64
	UpdatesSkipped      uint64
	OcclusionChecks     uint64
	OcclusionCacheHits  uint64
	CacheEvictions      uint64
	FramesRendered      uint64
	TransformsEmitted   uint64
	LastSnapshotRecords uint64
}

// Read возвращает срез текущих значений.
func (c *Counters) Read() Snapshot {
	return Snapshot{
		SnapshotsProduced:   c.SnapshotsProduced.Load(),
		SnapshotsEmpty:      c.SnapshotsEmpty.Load(),
		RecordsProduced:     c.RecordsProduced.Load(),
		UpdatesSkipped:      c.UpdatesSkipped.Load(),
		OcclusionChecks:     c.OcclusionChecks.Load(),
		OcclusionCacheHits:  c.OcclusionCacheHits.Load(),
		CacheEvictions:      c.CacheEvictions.Load(),
		FramesRendered:      c.FramesRendered.Load(),
		TransformsEmitted:   c.TransformsEmitted.Load(),
		LastSnapshotRecords: c.LastSnapshotRecords.Load(),
	}
}

// PublishExpvar публикует счётчики под именем name. Повторная публикация
// того же имени в expvar — паника, поэтому вызывается один раз на старте.
func (c *Counters) PublishExpvar(name string) {
	expvar.Publish(name, expvar.Func(func() interface{} {
		return c.Map()
	}))
}

// Map возвращает срез в виде карты для логов и expvar-подобных потребителей.
func (c *Counters) Map() map[string]uint64 {
	s := c.Read()
	return map[string]uint64{
		"snapshots_produced":    s.SnapshotsProduced,
		"snapshots_empty":       s.SnapshotsEmpty,
		"records_produced":      s.RecordsProduced,
		"updates_skipped":       s.UpdatesSkipped,
		"occlusion_checks":      s.OcclusionChecks,
		"occlusion_cache_hits":  s.OcclusionCacheHits,
		"cache_evictions":       s.CacheEvictions,
		"frames_rendered":       s.FramesRendered,
		"transforms_emitted":    s.TransformsEmitted,
		"last_snapshot_records": s.LastSnapshotRecords,
	}
}
