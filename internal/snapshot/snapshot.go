// Package snapshot определяет записи телеметрии сущностей и обмен готовыми
// снапшотами между world-контекстом и презентационным контекстом.
package snapshot

import "github.com/annelo/go-nameplates/internal/geometry"

// Disposition — отношение сущности к наблюдателю, определяет цвет имени.
type Disposition uint8

const (
	// DispositionNeutral — нейтральная сущность.
	DispositionNeutral Disposition = iota
	// DispositionHostile — враждебная сущность.
	DispositionHostile
	// DispositionFriendly — союзник или дружелюбная сущность.
	DispositionFriendly
)

// String возвращает читаемое имя отношения.
func (d Disposition) String() string {
	switch d {
	case DispositionHostile:
		return "hostile"
	case DispositionFriendly:
		return "friendly"
	default:
		return "neutral"
	}
}

// EntityRecord — телеметрия одной сущности на один тик. Записи эфемерны:
// каждый снапшот строится заново, слияния нет.
type EntityRecord struct {
	// ID — стабильный идентификатор сущности (ключ презентационного кеша).
	ID uint32
	// WorldPos — мировая позиция якоря имени (уже над головой).
	WorldPos geometry.Vec3
	// Name — отображаемое имя после нормализации; может быть пустым.
	Name string
	// Level — уровень сущности.
	Level int
	// Distance — расстояние до наблюдателя, >= 0.
	Distance float64
	// Dispo — отношение к наблюдателю.
	Dispo Disposition
	// IsViewer — запись самого наблюдателя (всегда первая в снапшоте).
	IsViewer bool
	// Occluded — закрыта ли сущность геометрией (по троттлированной проверке).
	Occluded bool
}

// Snapshot — один полный, атомарно публикуемый пакет записей.
type Snapshot struct {
	// Frame — номер презентационного кадра, для которого собран снапшот.
	Frame uint32
	// Records — записи в порядке отрисовки, наблюдатель первым.
	Records []EntityRecord
}

// Len возвращает число записей.
func (s Snapshot) Len() int { return len(s.Records) }

// Clone возвращает глубокую копию снапшота.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Frame: s.Frame}
	if len(s.Records) > 0 {
		out.Records = make([]EntityRecord, len(s.Records))
		copy(out.Records, s.Records)
	}
	return out
}
