// Package producer собирает снапшоты телеметрии сущностей. Работает
// исключительно в world-контексте — единственном месте, где безопасно
// читать живое состояние мира.
package producer

import (
	"math"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/occlusion"
	"github.com/annelo/go-nameplates/internal/snapshot"
	"github.com/annelo/go-nameplates/internal/stats"
	"github.com/annelo/go-nameplates/internal/worldstate"
)

// throttleEntry — world-контекстная запись троттлинга проверок видимости.
// Намеренно отделена от презентационного кеша: эти поля живут и читаются
// только в world-контексте, презентационный контекст видит результат лишь
// через опубликованный снапшот.
type throttleEntry struct {
	lastCheckFrame uint32 // кадр последней реальной проверки
	occluded       bool   // её результат
	lastTouched    uint32 // кадр последнего появления сущности в скане
}

// Producer строит снапшоты и публикует их в обмен.
type Producer struct {
	world    worldstate.World
	exchange *snapshot.Exchange
	checker  *occlusion.Checker
	counters *stats.Counters

	// throttle хранит результаты проверок видимости между прогонами.
	// Доступ только из world-контекста, синхронизация не нужна.
	throttle map[uint32]*throttleEntry

	// buf переиспользуется между прогонами, чтобы не аллоцировать на тике.
	buf []snapshot.EntityRecord

	// allowed — последний ответ OverlayAllowed, читается презентационным
	// контекстом для гейтинга отрисовки.
	allowed atomic.Bool
}

// New создаёт продюсер поверх мира, обмена и проверки видимости.
func New(world worldstate.World, ex *snapshot.Exchange, checker *occlusion.Checker, counters *stats.Counters) *Producer {
	return &Producer{
		world:    world,
		exchange: ex,
		checker:  checker,
		counters: counters,
		throttle: make(map[uint32]*throttleEntry),
	}
}

// OverlayAllowed возвращает последний известный ответ мира о допустимости
// оверлея.
func (p *Producer) OverlayAllowed() bool { return p.allowed.Load() }

// ResetThrottle сбрасывает троттл-кеш видимости. Вызывается из
// world-контекста при перезагрузке настроек.
func (p *Producer) ResetThrottle() {
	p.throttle = make(map[uint32]*throttleEntry)
}

// Produce выполняет один прогон: сканирует сущности, классифицирует их и
// публикует готовый снапшот. frame — номер презентационного кадра на момент
// запроса; cfg — настройки, зафиксированные на момент запроса.
//
// Отказ зависимостей (нет наблюдателя, оверлей запрещён) не является
// ошибкой: обмен переводится в явное состояние "данных нет".
func (p *Producer) Produce(frame uint32, cfg config.Config) {
	p.checker.SetConfig(cfg.Occlusion)

	allow := p.world.OverlayAllowed()
	p.allowed.Store(allow)
	if !allow {
		p.exchange.Clear()
		p.counters.SnapshotsEmpty.Add(1)
		return
	}

	viewer, ok := p.world.Viewer()
	if !ok {
		p.exchange.Clear()
		p.counters.SnapshotsEmpty.Add(1)
		return
	}

	maxEntities := cfg.Scan.MaxEntities
	maxScan := cfg.Scan.MaxScan
	maxDistSq := cfg.Scan.MaxDistance * cfg.Scan.MaxDistance

	p.buf = p.buf[:0]
	viewerPos := viewer.Position()

	// Наблюдатель всегда первой записью, если не скрыт настройками
	if !cfg.Scan.HideViewer {
		name := NormalizeName(viewer.DisplayName())
		if name == "" {
			name = "Player"
		}
		p.buf = append(p.buf, snapshot.EntityRecord{
			ID:       viewer.ID(),
			WorldPos: anchorPos(viewer, cfg.Scan.VerticalOffset),
			Name:     name,
			Level:    viewer.Level(),
			Distance: 0,
			Dispo:    snapshot.DispositionNeutral,
			IsViewer: true,
		})
	}

	scanned := 0
	p.world.ForEachEntity(func(e worldstate.EntityRef) bool {
		if len(p.buf) >= maxEntities || scanned >= maxScan {
			return false
		}
		scanned++

		if e == nil || e.ID() == viewer.ID() || e.IsDead() {
			return true
		}

		// Квадрат расстояния в горячем фильтре, корень — только для выживших
		distSq := viewerPos.DistanceSquared(e.Position())
		if distSq > maxDistSq {
			return true
		}

		rec := snapshot.EntityRecord{
			ID:       e.ID(),
			WorldPos: anchorPos(e, cfg.Scan.VerticalOffset),
			Name:     NormalizeName(e.DisplayName()),
			Level:    e.Level(),
			Distance: math.Sqrt(distSq),
			Dispo:    p.disposition(e, viewer),
		}

		if cfg.Occlusion.Enabled {
			rec.Occluded = p.throttledOcclusion(e, viewer, rec, frame, cfg)
		}

		p.buf = append(p.buf, rec)
		return true
	})

	p.pruneThrottle(frame, cfg.Cache.GraceFrames)

	p.exchange.Publish(snapshot.Snapshot{Frame: frame, Records: p.buf})
	p.counters.SnapshotsProduced.Add(1)
	p.counters.RecordsProduced.Add(uint64(len(p.buf)))
	p.counters.LastSnapshotRecords.Store(uint64(len(p.buf)))
}

// throttledOcclusion возвращает признак перекрытия, переиспользуя недавний
// результат: реальная проверка выполняется не чаще CheckInterval кадров на
// сущность.
func (p *Producer) throttledOcclusion(e, viewer worldstate.EntityRef, rec snapshot.EntityRecord, frame uint32, cfg config.Config) bool {
	entry, exists := p.throttle[rec.ID]
	if exists {
		entry.lastTouched = frame
		if frame-entry.lastCheckFrame < uint32(cfg.Occlusion.CheckInterval) {
			p.counters.OcclusionCacheHits.Add(1)
			return entry.occluded
		}
	}

	occluded := p.checker.IsOccluded(e, viewer, rec.WorldPos)
	p.counters.OcclusionChecks.Add(1)

	if !exists {
		entry = &throttleEntry{lastTouched: frame}
		p.throttle[rec.ID] = entry
	}
	entry.lastCheckFrame = frame
	entry.occluded = occluded
	return occluded
}

// pruneThrottle вычищает троттл-записи сущностей, давно не попадавших в
// скан, тем же грейс-окном, что и презентационный кеш.
func (p *Producer) pruneThrottle(frame, graceFrames uint32) {
	for id, entry := range p.throttle {
		if frame-entry.lastTouched > graceFrames {
			delete(p.throttle, id)
		}
	}
}

// disposition вычисляет отношение сущности к наблюдателю с фиксированным
// приоритетом: текущая враждебность перекрывает всё, затем команда, затем
// эвристика дружелюбия, иначе нейтрал.
func (p *Producer) disposition(e, viewer worldstate.EntityRef) snapshot.Disposition {
	if p.world.IsHostile(e, viewer) || p.world.IsHostile(viewer, e) {
		return snapshot.DispositionHostile
	}
	if p.world.IsTeammate(e) {
		return snapshot.DispositionFriendly
	}
	if p.world.CanTalkTo(e) {
		return snapshot.DispositionFriendly
	}
	return snapshot.DispositionNeutral
}

// anchorPos возвращает мировую позицию якоря имени: позиция сущности плюс
// её рост плюс настраиваемый вертикальный отступ.
func anchorPos(e worldstate.EntityRef, verticalOffset float64) geometry.Vec3 {
	pos := e.Position()
	pos.Z += e.Height() + verticalOffset
	return pos
}

// NormalizeName приводит отображаемое имя к виду для нейм-плейта:
// обрезает пробелы и переводит каждое слово в Title Case.
func NormalizeName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	runes := []rune(trimmed)
	newWord := true
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			newWord = true
		case newWord:
			runes[i] = unicode.ToUpper(r)
			newWord = false
		}
	}
	return string(runes)
}
