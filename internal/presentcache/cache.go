// Package presentcache хранит пер-сущностное состояние сглаживания между
// тиками и превращает сырые записи снапшота в готовые к отрисовке
// трансформы. Всё состояние принадлежит презентационному контексту,
// синхронизация не требуется.
package presentcache

import (
	"math"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/smoothing"
	"github.com/annelo/go-nameplates/internal/snapshot"
	"github.com/annelo/go-nameplates/internal/stats"
)

// Transform — готовый к отрисовке результат одного тика для одной сущности.
// Потребитель (рендерер) владеет всеми решениями о стилях; здесь только
// геометрия, прозрачность и прогресс раскрытия.
type Transform struct {
	ID       uint32
	Name     string
	Level    int
	Dispo    snapshot.Disposition
	IsViewer bool

	Screen geometry.Vec2 // сглаженная экранная позиция
	Depth  float64       // нормированная глубина проекции

	Alpha     float64 // сглаженная дистанционная прозрачность [0,1]
	Scale     float64 // сглаженный множитель размера
	Occlusion float64 // непрерывный фактор видимости [0,1]

	RevealRunes int  // сколько рун имени уже раскрыто
	RevealDone  bool // анимация раскрытия завершена
}

// entry — запись кеша одной сущности. Создаётся лениво при первом
// появлении и живёт, пока сущность не пропадает дольше грейс-окна.
type entry struct {
	initialized bool
	lastSeen    uint32 // кадр последнего появления в снапшоте

	smooth          geometry.Vec2 // сглаженная экранная позиция
	ring            *smoothing.PositionRing
	alphaSmooth     float64
	scaleSmooth     float64
	occlusionSmooth float64

	wasOccluded bool // состояние перекрытия на прошлом тике

	revealTime float64 // секунды с начала анимации раскрытия
	revealDone bool

	lastName string // для обнаружения переименования/переиспользования ID
}

// Manager — менеджер презентационного кеша, ключ — идентификатор сущности.
type Manager struct {
	cfg      config.Config
	entries  map[uint32]*entry
	frame    uint32
	counters *stats.Counters
}

// NewManager создаёт пустой кеш с заданными настройками.
func NewManager(cfg config.Config, counters *stats.Counters) *Manager {
	if counters == nil {
		counters = &stats.Counters{}
	}
	return &Manager{
		cfg:      cfg,
		entries:  make(map[uint32]*entry),
		counters: counters,
	}
}

// SetConfig обновляет настройки без сброса состояния.
func (m *Manager) SetConfig(cfg config.Config) { m.cfg = cfg }

// Reset полностью очищает кеш (перезагрузка настроек на лету).
func (m *Manager) Reset() {
	m.entries = make(map[uint32]*entry)
}

// Len возвращает число записей в кеше.
func (m *Manager) Len() int { return len(m.entries) }

// BeginFrame фиксирует номер текущего презентационного кадра. Вызывается
// конвейером один раз за тик перед серией Update.
func (m *Manager) BeginFrame(frame uint32) { m.frame = frame }

// Update обновляет (или создаёт) запись кеша по свежей записи снапшота и
// возвращает трансформ для отрисовки. ok=false — рисовать нечего (нет
// проекции или имя полностью прозрачно), но состояние записи продвинуто и
// отметка "виден" поставлена.
//
// camDist — расстояние от камеры до якоря имени; отрицательное значение
// означает "камера недоступна" и отключает камерозависимую часть масштаба.
func (m *Manager) Update(rec snapshot.EntityRecord, proj geometry.Projection, camDist float64, dt float64) (Transform, bool) {
	e, exists := m.entries[rec.ID]
	if !exists {
		e = &entry{
			lastSeen: m.frame,
			ring:     smoothing.NewPositionRing(m.cfg.Smoothing.PositionHistory),
			lastName: rec.Name,
		}
		m.entries[rec.ID] = e
	}

	// Сколько кадров сущность отсутствовала — считается до обновления
	// lastSeen, иначе порог повторного входа никогда не сработает
	framesUnseen := m.frame - e.lastSeen

	// Переименование при том же ID: трактуем как новую сущность для
	// анимации раскрытия
	if e.lastName != rec.Name {
		e.lastName = rec.Name
		e.revealTime = 0
		e.revealDone = false
	}

	// Повторный вход: долго отсутствовал или снова вышел из-за геометрии
	if e.initialized && e.revealDone {
		becameVisible := e.wasOccluded && !rec.Occluded
		if framesUnseen >= m.cfg.Cache.ReentryFrames || becameVisible {
			e.revealTime = 0
			e.revealDone = false
		}
	}

	e.lastSeen = m.frame

	if !proj.OK {
		// За камерой или вне поля зрения: запись продолжает жить,
		// но трансформа на этот тик нет
		return Transform{}, false
	}

	alphaTarget := m.alphaTarget(rec.Distance)
	scaleTarget := m.scaleTarget(rec.Distance, camDist)
	occlusionTarget := 1.0
	if rec.Occluded {
		occlusionTarget = 0.0
	}

	if !e.initialized {
		// Первое появление: сглаженные поля сеются сырыми значениями,
		// чтобы имя не "вырастало" из пустоты
		e.initialized = true
		e.alphaSmooth = alphaTarget
		e.scaleSmooth = scaleTarget
		e.smooth = proj.Screen
		e.ring.Fill(proj.Screen)

		// Стартуем видимыми и даём перекрытию погасить имя плавно:
		// на загрузке сцены проверки видимости бывают ненадёжны
		e.occlusionSmooth = 1.0

		e.revealTime = 0
		e.revealDone = false
	} else {
		sm := m.cfg.Smoothing
		e.alphaSmooth = smoothing.Approach(e.alphaSmooth, alphaTarget, dt, sm.AlphaSettle)
		e.scaleSmooth = smoothing.Approach(e.scaleSmooth, scaleTarget, dt, sm.ScaleSettle)
		e.occlusionSmooth = smoothing.Approach(e.occlusionSmooth, occlusionTarget, dt, sm.OcclusionSettle)

		// Позиция: скользящее среднее давит периодический джиттер проекции.
		// При большом скачке подмешиваем среднее крупной долей — отзывчивость
		// важнее гладкости при телепорте или резкой смене камеры.
		averaged := e.ring.Push(proj.Screen)
		jump := proj.Screen.Sub(e.smooth).Length()
		if jump > sm.LargeMoveThreshold {
			delta := averaged.Sub(e.smooth).Scale(sm.LargeMoveBlend)
			e.smooth = e.smooth.Add(delta)
		} else {
			e.smooth = averaged
		}

		if m.cfg.Reveal.Enabled && !e.revealDone {
			e.revealTime += dt
		}
	}

	e.wasOccluded = rec.Occluded

	combined := e.alphaSmooth * e.occlusionSmooth
	if combined <= m.cfg.Overlay.MinVisibleAlpha {
		return Transform{}, false
	}

	revealRunes, revealDone := m.revealProgress(e, rec.Name)

	return Transform{
		ID:          rec.ID,
		Name:        rec.Name,
		Level:       rec.Level,
		Dispo:       rec.Dispo,
		IsViewer:    rec.IsViewer,
		Screen:      e.smooth,
		Depth:       proj.Depth,
		Alpha:       e.alphaSmooth,
		Scale:       e.scaleSmooth,
		Occlusion:   e.occlusionSmooth,
		RevealRunes: revealRunes,
		RevealDone:  revealDone,
	}, true
}

// Sweep вычищает записи, не появлявшиеся дольше грейс-окна. Запускается
// безусловно после каждого тика — это единственный путь удаления записей.
func (m *Manager) Sweep() {
	grace := m.cfg.Cache.GraceFrames
	for id, e := range m.entries {
		if m.frame-e.lastSeen > grace {
			delete(m.entries, id)
			m.counters.CacheEvictions.Add(1)
		}
	}
}

// alphaTarget — дистанционная цель прозрачности: кубическое затухание между
// порогами, возведённое в квадрат для более плотного ближнего поля.
func (m *Manager) alphaTarget(dist float64) float64 {
	f := m.cfg.Fade
	fadeT := smoothing.SmoothStep((dist - f.StartDistance) / (f.EndDistance - f.StartDistance))
	a := 1.0 - fadeT
	return a * a
}

// scaleTarget — дистанционная цель множителя размера с гамма-коррекцией,
// ограниченная снизу минимумом. При доступной камере берётся минимум из
// масштабов по дистанции до наблюдателя и до камеры, чтобы зум не давал
// скачков.
func (m *Manager) scaleTarget(dist, camDist float64) float64 {
	target := m.scaleFromDistance(dist)
	if camDist >= 0 {
		target = math.Min(target, m.scaleFromDistance(camDist))
	}
	return target
}

func (m *Manager) scaleFromDistance(dist float64) float64 {
	s := m.cfg.Scale
	t := smoothing.Saturate((dist - s.StartDistance) / (s.EndDistance - s.StartDistance))
	t = math.Pow(t, s.Gamma)
	return 1.0 + (s.Minimum-1.0)*t
}

// revealProgress возвращает число раскрытых рун имени и признак завершения.
func (m *Manager) revealProgress(e *entry, name string) (int, bool) {
	total := len([]rune(name))
	if !m.cfg.Reveal.Enabled {
		return total, true
	}
	if e.revealDone {
		return total, true
	}

	elapsed := e.revealTime - m.cfg.Reveal.Delay
	if elapsed <= 0 {
		return 0, false
	}

	runes := int(elapsed * m.cfg.Reveal.CharsPerSecond)
	if runes >= total {
		e.revealDone = true
		return total, true
	}
	return runes, false
}
