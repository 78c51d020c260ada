package snapshot

import "sync"

// Exchange — один защищённый мьютексом слот с последним снапшотом.
// Продюсер публикует в него целиком собранный снапшот, презентационный
// контекст забирает копию. Мьютекс держится только на время копирования,
// никогда — на время обхода записей или отрисовки.
type Exchange struct {
	mu        sync.Mutex
	current   Snapshot
	published bool
}

// NewExchange создаёт пустой обмен без опубликованного снапшота.
func NewExchange() *Exchange {
	return &Exchange{}
}

// Publish атомарно замещает содержимое слота. Снапшот копируется внутрь,
// поэтому вызывающий может переиспользовать свой буфер записей.
func (e *Exchange) Publish(s Snapshot) {
	clone := s.Clone()

	e.mu.Lock()
	e.current = clone
	e.published = true
	e.mu.Unlock()
}

// Clear переводит обмен в явное состояние "данных нет". Используется
// продюсером при недоступном наблюдателе или запрещённом оверлее, чтобы
// читатель не рисовал устаревший снапшот.
func (e *Exchange) Clear() {
	e.mu.Lock()
	e.current = Snapshot{}
	e.published = false
	e.mu.Unlock()
}

// Read возвращает копию текущего снапшота. ok=false, если снапшот не
// опубликован (ещё не было продукции или обмен был очищен). Читатель
// никогда не наблюдает частично записанный снапшот.
func (e *Exchange) Read() (Snapshot, bool) {
	e.mu.Lock()
	s := e.current.Clone()
	ok := e.published
	e.mu.Unlock()
	return s, ok
}
