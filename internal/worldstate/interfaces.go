// Package worldstate содержит интерфейсы границы с живым состоянием мира.
// Конвейер не знает, кто за ними стоит — реальный движок или симуляция;
// единственное разрешённое "падение" коллаборатора — ответ "недоступно".
package worldstate

import "github.com/annelo/go-nameplates/internal/geometry"

// EntityRef — read-only доступ к одной сущности мира. Методы безопасно
// вызывать только из world-контекста.
type EntityRef interface {
	// ID — стабильный числовой идентификатор сущности на время сессии.
	ID() uint32
	// DisplayName — отображаемое имя; может быть пустым.
	DisplayName() string
	// Level — числовой уровень сущности.
	Level() int
	// Position — позиция опорной точки сущности в мире.
	Position() geometry.Vec3
	// Height — высота сущности (для якоря имени над головой).
	Height() float64
	// IsDead сообщает, мертва ли сущность.
	IsDead() bool
}

// World — источник живого состояния мира для продюсера снапшотов.
// Все запросы read-only; вместо ошибок коллаборатор отвечает ok=false.
type World interface {
	// Viewer возвращает сущность-наблюдателя, ok=false если он недоступен.
	Viewer() (EntityRef, bool)

	// ForEachEntity обходит сущности в порядке сканирования (наблюдатель не
	// включается). Возврат false из fn прерывает обход.
	ForEachEntity(fn func(EntityRef) bool)

	// Camera возвращает камеру наблюдателя, ok=false если данных камеры нет.
	// Единственный метод, который зовут оба контекста (презентация проецирует
	// якоря каждый кадр) — реализация обязана сделать его потокобезопасным.
	Camera() (geometry.Camera, bool)

	// IsHostile сообщает, враждебна ли сущность a сущности b прямо сейчас.
	IsHostile(a, b EntityRef) bool
	// IsTeammate сообщает, состоит ли сущность в команде наблюдателя.
	IsTeammate(e EntityRef) bool
	// CanTalkTo — эвристика "достаточно дружелюбен для разговора".
	CanTalkTo(e EntityRef) bool

	// HasLineOfSight проверяет прямую видимость от наблюдателя до точки.
	// ok=false означает, что запрос не удался (трактуется как "видим").
	HasLineOfSight(viewer EntityRef, to geometry.Vec3) (visible bool, ok bool)

	// OverlayAllowed сообщает, уместен ли оверлей в текущем состоянии мира
	// (false во время загрузки, меню и т.п.).
	OverlayAllowed() bool
}
