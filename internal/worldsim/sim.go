// Package worldsim — симуляция игрового мира для демо и тестов конвейера.
// Реализует интерфейсы worldstate: реестр сущностей с блужданием по
// перлин-шуму, наблюдатель с камерой за спиной и сферические препятствия
// для проверки прямой видимости.
package worldsim

import (
	"math"
	"sync"

	"github.com/aquilax/go-perlin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/worldstate"
)

// Параметры перлин-шума блуждания (см. noisegeneration в генераторе мира)
const (
	wanderAlpha   = 2.0
	wanderBeta    = 2.0
	wanderOctaves = 3
	// wanderFreq — скорость изменения курса во времени
	wanderFreq = 0.08
)

var (
	_ worldstate.World     = (*Sim)(nil)
	_ worldstate.EntityRef = (*Entity)(nil)
)

// Obstacle — сферическое препятствие, блокирующее прямую видимость.
type Obstacle struct {
	Center geometry.Vec3
	Radius float64
}

// Entity — сущность симуляции. Все изменяемые поля читаются и пишутся под
// мьютексом родительской симуляции.
type Entity struct {
	sim *Sim

	id  uint32
	ref string // uuid для логов и отладки

	name     string
	level    int
	pos      geometry.Vec3
	height   float64
	dead     bool
	hostile  bool // враждебен наблюдателю
	teammate bool
	talkable bool

	// speed > 0 включает блуждание; seed разводит курсы сущностей
	speed float64
	seed  float64
}

// ID возвращает стабильный числовой идентификатор сущности.
func (e *Entity) ID() uint32 { return e.id }

// Ref возвращает uuid сущности (только для логов).
func (e *Entity) Ref() string { return e.ref }

// DisplayName возвращает отображаемое имя.
func (e *Entity) DisplayName() string {
	e.sim.mu.RLock()
	defer e.sim.mu.RUnlock()
	return e.name
}

// Level возвращает уровень сущности.
func (e *Entity) Level() int {
	e.sim.mu.RLock()
	defer e.sim.mu.RUnlock()
	return e.level
}

// Position возвращает позицию сущности.
func (e *Entity) Position() geometry.Vec3 {
	e.sim.mu.RLock()
	defer e.sim.mu.RUnlock()
	return e.pos
}

// Height возвращает рост сущности.
func (e *Entity) Height() float64 {
	e.sim.mu.RLock()
	defer e.sim.mu.RUnlock()
	return e.height
}

// IsDead сообщает, мертва ли сущность.
func (e *Entity) IsDead() bool {
	e.sim.mu.RLock()
	defer e.sim.mu.RUnlock()
	return e.dead
}

// Sim — симулируемый мир.
type Sim struct {
	mu sync.RWMutex

	logger *zap.SugaredLogger

	entities map[uint32]*Entity
	// order фиксирует порядок сканирования (порядок спауна)
	order  []uint32
	nextID uint32

	viewerID uint32
	// viewerYaw — курс наблюдателя в радианах (0 — вдоль +X)
	viewerYaw float64

	noise *perlin.Perlin
	t     float64 // накопленное время симуляции

	obstacles []Obstacle

	allowed  bool
	losFails bool // симуляция отказа запроса прямой видимости

	// параметры камеры
	camBack   float64 // насколько камера позади наблюдателя
	camHeight float64
	camOK     bool // false симулирует недоступность камеры
	viewportW float64
	viewportH float64
	fovY      float64
}

// New создаёт симуляцию с наблюдателем в начале координат.
func New(seed int64) *Sim {
	s := &Sim{
		logger:    zap.NewNop().Sugar(),
		entities:  make(map[uint32]*Entity),
		noise:     perlin.NewPerlin(wanderAlpha, wanderBeta, wanderOctaves, seed),
		allowed:   true,
		camBack:   150,
		camHeight: 60,
		camOK:     true,
		viewportW: 1920,
		viewportH: 1080,
		fovY:      math.Pi / 3,
	}

	s.viewerID = s.spawnLocked(SpawnOptions{
		Name:   "player",
		Level:  10,
		Height: 64,
	})
	return s
}

// SetLogger подменяет логгер (по умолчанию no-op).
func (s *Sim) SetLogger(logger *zap.SugaredLogger) {
	if logger != nil {
		s.logger = logger
	}
}

// SpawnOptions — параметры создания сущности.
type SpawnOptions struct {
	Name     string
	Level    int
	Pos      geometry.Vec3
	Height   float64
	Hostile  bool
	Teammate bool
	Talkable bool
	// Speed > 0 включает блуждание по шуму
	Speed float64
}

// Spawn добавляет сущность и возвращает её идентификатор.
func (s *Sim) Spawn(opts SpawnOptions) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnLocked(opts)
}

func (s *Sim) spawnLocked(opts SpawnOptions) uint32 {
	s.nextID++
	id := s.nextID

	if opts.Height == 0 {
		opts.Height = 64
	}

	e := &Entity{
		sim:      s,
		id:       id,
		ref:      uuid.New().String(),
		name:     opts.Name,
		level:    opts.Level,
		pos:      opts.Pos,
		height:   opts.Height,
		hostile:  opts.Hostile,
		teammate: opts.Teammate,
		talkable: opts.Talkable,
		speed:    opts.Speed,
		seed:     float64(id) * 37.1,
	}
	s.entities[id] = e
	s.order = append(s.order, id)

	s.logger.Infow("сущность создана", "id", id, "ref", e.ref, "name", opts.Name)
	return id
}

// Remove удаляет сущность из мира (идентификатор может быть переиспользован
// движком — симулируем это отдельным Rename).
func (s *Sim) Remove(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return
	}
	delete(s.entities, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rename меняет отображаемое имя сущности (респаун с переиспользованным ID).
func (s *Sim) Rename(id uint32, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.name = name
	}
}

// Kill помечает сущность мёртвой.
func (s *Sim) Kill(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.dead = true
	}
}

// SetPosition телепортирует сущность.
func (s *Sim) SetPosition(id uint32, pos geometry.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok {
		e.pos = pos
	}
}

// EntityPosition возвращает текущую позицию сущности.
func (s *Sim) EntityPosition(id uint32) (geometry.Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entities[id]; ok {
		return e.pos, true
	}
	return geometry.Vec3{}, false
}

// AddObstacle добавляет сферическое препятствие.
func (s *Sim) AddObstacle(center geometry.Vec3, radius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obstacles = append(s.obstacles, Obstacle{Center: center, Radius: radius})
}

// SetAllowed управляет допустимостью оверлея (меню, загрузка).
func (s *Sim) SetAllowed(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed = allowed
}

// SetCameraAvailable симулирует пропажу данных камеры.
func (s *Sim) SetCameraAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camOK = ok
}

// SetLOSFailing симулирует отказ запроса прямой видимости у хоста.
func (s *Sim) SetLOSFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.losFails = failing
}

// SetViewport задаёт размеры вьюпорта камеры.
func (s *Sim) SetViewport(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportW = w
	s.viewportH = h
}

// MoveViewer сдвигает наблюдателя в его локальных осях (вперёд/вбок) и
// доворачивает курс.
func (s *Sim) MoveViewer(forward, strafe, dyaw float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewerYaw += dyaw
	v, ok := s.entities[s.viewerID]
	if !ok {
		return
	}
	dir := geometry.Vec3{X: math.Cos(s.viewerYaw), Y: math.Sin(s.viewerYaw)}
	side := geometry.Vec3{X: -dir.Y, Y: dir.X}
	v.pos = v.pos.Add(dir.Scale(forward)).Add(side.Scale(strafe))
}

// Advance продвигает симуляцию на dt секунд: блуждающие сущности меняют
// курс по перлин-шуму, что даёт плавные органичные траектории.
func (s *Sim) Advance(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.t += dt
	for _, id := range s.order {
		e := s.entities[id]
		if e == nil || e.dead || e.speed <= 0 || id == s.viewerID {
			continue
		}
		// Noise1D даёт примерно [-1,1]; разворачиваем в полный круг
		heading := s.noise.Noise1D(e.seed+s.t*wanderFreq) * math.Pi * 2
		dir := geometry.Vec3{X: math.Cos(heading), Y: math.Sin(heading)}
		e.pos = e.pos.Add(dir.Scale(e.speed * dt))
	}
}

// Viewer возвращает сущность-наблюдателя.
func (s *Sim) Viewer() (worldstate.EntityRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entities[s.viewerID]
	if !ok || v.dead {
		return nil, false
	}
	return v, true
}

// ForEachEntity обходит сущности в порядке спауна, наблюдатель пропускается.
func (s *Sim) ForEachEntity(fn func(worldstate.EntityRef) bool) {
	// Копируем список под блокировкой, обходим без неё: аксессоры
	// сущностей берут RLock сами
	s.mu.RLock()
	list := make([]*Entity, 0, len(s.order))
	for _, id := range s.order {
		if id == s.viewerID {
			continue
		}
		if e, ok := s.entities[id]; ok {
			list = append(list, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range list {
		if !fn(e) {
			return
		}
	}
}

// Camera возвращает камеру за спиной наблюдателя. Потокобезопасна: зовут
// оба контекста.
func (s *Sim) Camera() (geometry.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.camOK {
		return geometry.Camera{}, false
	}
	v, ok := s.entities[s.viewerID]
	if !ok {
		return geometry.Camera{}, false
	}

	forward := geometry.Vec3{X: math.Cos(s.viewerYaw), Y: math.Sin(s.viewerYaw)}
	pos := v.pos.Sub(forward.Scale(s.camBack))
	pos.Z += v.height + s.camHeight

	return geometry.Camera{
		Pos:     pos,
		Forward: forward,
		Up:      geometry.Vec3{Z: 1},
		FOVY:    s.fovY,
		Width:   s.viewportW,
		Height:  s.viewportH,
		Near:    1,
		Far:     10000,
	}, true
}

// IsHostile сообщает о текущей враждебности a к b. В симуляции враждебность
// задаётся флагом относительно наблюдателя.
func (s *Sim) IsHostile(a, b worldstate.EntityRef) bool {
	if a == nil || b == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ea, ok := s.entities[a.ID()]
	if !ok {
		return false
	}
	return ea.hostile && b.ID() == s.viewerID
}

// IsTeammate сообщает, состоит ли сущность в команде наблюдателя.
func (s *Sim) IsTeammate(e worldstate.EntityRef) bool {
	if e == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ent, ok := s.entities[e.ID()]; ok {
		return ent.teammate
	}
	return false
}

// CanTalkTo — эвристика дружелюбия.
func (s *Sim) CanTalkTo(e worldstate.EntityRef) bool {
	if e == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ent, ok := s.entities[e.ID()]; ok {
		return ent.talkable
	}
	return false
}

// HasLineOfSight трассирует отрезок от глаз наблюдателя до точки через
// сферические препятствия.
func (s *Sim) HasLineOfSight(viewer worldstate.EntityRef, to geometry.Vec3) (bool, bool) {
	if viewer == nil {
		return true, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.losFails {
		return false, false
	}

	v, ok := s.entities[viewer.ID()]
	if !ok {
		return true, false
	}

	from := v.pos
	from.Z += v.height

	for _, o := range s.obstacles {
		if segmentHitsSphere(from, to, o.Center, o.Radius) {
			return false, true
		}
	}
	return true, true
}

// OverlayAllowed сообщает, уместен ли оверлей.
func (s *Sim) OverlayAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowed
}

// segmentHitsSphere проверяет пересечение отрезка ab со сферой.
func segmentHitsSphere(a, b, center geometry.Vec3, radius float64) bool {
	ab := b.Sub(a)
	length := ab.Length()
	if length < 1e-9 {
		return a.Distance(center) <= radius
	}

	// Проекция центра на прямую, зажатая в пределы отрезка
	t := center.Sub(a).Dot(ab) / (length * length)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return closest.Distance(center) <= radius
}
