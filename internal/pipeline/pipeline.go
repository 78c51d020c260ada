// Package pipeline связывает продюсер, планировщик, обмен и презентационный
// кеш в единый объект с явным владением состоянием. Никаких пакетных
// синглтонов: счётчик кадров, кеши и флаги живут внутри Pipeline и
// конструируются один раз на старте.
package pipeline

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/occlusion"
	"github.com/annelo/go-nameplates/internal/presentcache"
	"github.com/annelo/go-nameplates/internal/producer"
	"github.com/annelo/go-nameplates/internal/scheduler"
	"github.com/annelo/go-nameplates/internal/snapshot"
	"github.com/annelo/go-nameplates/internal/stats"
	"github.com/annelo/go-nameplates/internal/worldstate"
)

// worldQueueCapacity — буфер очереди задач world-контекста. Продукция
// однополётная, так что больше пары слотов и не нужно.
const worldQueueCapacity = 4

// Pipeline — презентационный конвейер нейм-плейтов.
//
// Tick вызывается презентационным контекстом раз в кадр и никогда не
// блокируется на world-контексте: рисуется последний завершённый снапшот.
type Pipeline struct {
	logger *zap.SugaredLogger

	world    worldstate.World
	cfg      config.Config
	counters *stats.Counters

	gate     scheduler.Gate
	queue    *scheduler.WorldQueue
	exchange *snapshot.Exchange
	producer *producer.Producer
	cache    *presentcache.Manager

	// frame — монотонный счётчик презентационных кадров.
	frame uint32

	// enabled — ручной тумблер оверлея.
	enabled atomic.Bool

	// wasInvalid/cooldown реализуют прогрев после возврата из невалидного
	// состояния (загрузка сцены, меню)
	wasInvalid bool
	cooldown   int

	// transforms переиспользуется между тиками
	transforms []presentcache.Transform
}

// New создаёт конвейер поверх мира с заданными настройками.
func New(world worldstate.World, cfg config.Config) *Pipeline {
	cfg.Clamp()

	counters := &stats.Counters{}
	ex := snapshot.NewExchange()
	checker := occlusion.NewChecker(world, cfg.Occlusion)

	p := &Pipeline{
		logger:   zap.NewNop().Sugar(),
		world:    world,
		cfg:      cfg,
		counters: counters,
		queue:    scheduler.NewWorldQueue(worldQueueCapacity),
		exchange: ex,
		producer: producer.New(world, ex, checker, counters),
		cache:    presentcache.NewManager(cfg, counters),
	}
	p.enabled.Store(true)
	p.wasInvalid = true
	return p
}

// SetLogger подменяет логгер (по умолчанию no-op).
func (p *Pipeline) SetLogger(logger *zap.SugaredLogger) {
	if logger != nil {
		p.logger = logger
	}
}

// Queue возвращает очередь задач world-контекста. Владелец конвейера обязан
// запустить Queue().Run(ctx) в горутине world-контекста (или дёргать
// RunPending при пошаговом исполнении).
func (p *Pipeline) Queue() *scheduler.WorldQueue { return p.queue }

// Frame возвращает номер текущего презентационного кадра.
func (p *Pipeline) Frame() uint32 { return p.frame }

// Enabled сообщает состояние ручного тумблера.
func (p *Pipeline) Enabled() bool { return p.enabled.Load() }

// Toggle переключает ручной тумблер и возвращает новое состояние.
func (p *Pipeline) Toggle() bool {
	next := !p.enabled.Load()
	p.enabled.Store(next)
	p.logger.Infow("оверлей переключён", "enabled", next)
	return next
}

// RequestUpdate запрашивает продукцию снапшота. Может вызываться каждый
// кадр: при уже взведённом single-flight флаге запрос — тихий no-op.
// Настройки и номер кадра фиксируются в момент запроса.
func (p *Pipeline) RequestUpdate() {
	if !p.gate.TryAcquire() {
		p.counters.UpdatesSkipped.Add(1)
		return
	}

	frame := p.frame
	cfg := p.cfg
	task := func() {
		// Флаг снимается при любом исходе продукции
		defer p.gate.Release()
		p.producer.Produce(frame, cfg)
	}

	if !p.queue.Submit(task) {
		// Очередь полна — откатываем флаг, попробуем на следующем тике
		p.gate.Release()
	}
}

// Tick — вход презентационного контекста, раз в отрисованный кадр.
// Возвращает трансформы для рендерера; nil — рисовать нечего.
func (p *Pipeline) Tick(dt time.Duration) []presentcache.Transform {
	p.RequestUpdate()

	if !p.enabled.Load() || !p.producer.OverlayAllowed() {
		p.wasInvalid = true
		return nil
	}

	// После невалидного состояния даём сцене устаканиться
	if p.wasInvalid {
		p.wasInvalid = false
		p.cooldown = p.cfg.Overlay.WarmupFrames
	}
	if p.cooldown > 0 {
		p.cooldown--
		return nil
	}

	p.frame++
	p.counters.FramesRendered.Add(1)
	p.cache.BeginFrame(p.frame)

	snap, ok := p.exchange.Read()
	if ok {
		cam, hasCam := p.world.Camera()
		dtSec := dt.Seconds()

		p.transforms = p.transforms[:0]
		for _, rec := range snap.Records {
			proj := geometryProjection(cam, hasCam, rec, p.cfg.Overlay.ScreenMargin)

			camDist := -1.0
			if hasCam {
				camDist = cam.Pos.Distance(rec.WorldPos)
			}

			tr, visible := p.cache.Update(rec, proj, camDist, dtSec)
			if visible {
				p.transforms = append(p.transforms, tr)
			}
		}
		p.counters.TransformsEmitted.Add(uint64(len(p.transforms)))
	}

	// Единственный путь удаления записей кеша — безусловная зачистка
	// после каждого тика
	p.cache.Sweep()

	if !ok || len(p.transforms) == 0 {
		return nil
	}
	return p.transforms
}

// ApplyConfig применяет новые настройки на лету: кеш сглаживания и
// троттл-кеш видимости сбрасываются, чтобы новые пороги подействовали сразу.
func (p *Pipeline) ApplyConfig(cfg config.Config) {
	cfg.Clamp()
	p.cfg = cfg
	p.cache.SetConfig(cfg)
	p.cache.Reset()

	// Троттл-кеш принадлежит world-контексту — сбрасываем его там
	p.queue.Submit(p.producer.ResetThrottle)

	p.logger.Infow("настройки применены",
		"max_entities", cfg.Scan.MaxEntities,
		"scan_distance", cfg.Scan.MaxDistance,
		"occlusion", cfg.Occlusion.Enabled,
	)
}

// Config возвращает текущие настройки конвейера.
func (p *Pipeline) Config() config.Config { return p.cfg }

// CacheLen возвращает размер презентационного кеша (для HUD и тестов).
func (p *Pipeline) CacheLen() int { return p.cache.Len() }

// Stats возвращает срез счётчиков конвейера.
func (p *Pipeline) Stats() stats.Snapshot { return p.counters.Read() }

// PublishExpvar выставляет счётчики конвейера в expvar. Вызывается один раз
// на старте процесса.
func (p *Pipeline) PublishExpvar(name string) { p.counters.PublishExpvar(name) }

// StatsMap возвращает счётчики в виде карты для логов.
func (p *Pipeline) StatsMap() map[string]uint64 { return p.counters.Map() }

// geometryProjection проецирует якорь записи на экран. Отсутствие камеры
// или выход за пределы вьюпорта (с запасом margin) дают невалидную
// проекцию — запись остаётся в кеше, но не рисуется.
func geometryProjection(cam geometry.Camera, hasCam bool, rec snapshot.EntityRecord, margin float64) geometry.Projection {
	if !hasCam {
		return geometry.Projection{}
	}
	proj := cam.WorldToScreen(rec.WorldPos)
	if !cam.OnScreen(proj, margin) {
		return geometry.Projection{}
	}
	return proj
}
