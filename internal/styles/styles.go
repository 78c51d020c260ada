// Package styles — реестр оформления нейм-плейтов: уровневые тиры и
// приоритетные титулы по ключевым словам имени. Реестр принадлежит
// рендереру-потребителю, ядро конвейера о стилях не знает.
package styles

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier — оформление диапазона уровней.
type Tier struct {
	// MinLevel/MaxLevel — границы диапазона включительно.
	MinLevel int `yaml:"min_level"`
	MaxLevel int `yaml:"max_level"`
	// Title — подпись тира (подставляется в формат имени).
	Title string `yaml:"title"`
	// Color — имя цвета для рендерера.
	Color string `yaml:"color"`
	// Effect — имя текстового эффекта для рендерера.
	Effect string `yaml:"effect"`
}

// SpecialTitle — переопределение оформления по ключевому слову в имени
// (админ, торговец и т.п.). Больший приоритет проверяется раньше.
type SpecialTitle struct {
	Keyword  string `yaml:"keyword"`
	Title    string `yaml:"title"`
	Color    string `yaml:"color"`
	Priority int    `yaml:"priority"`
}

// Registry — загруженный набор правил оформления.
type Registry struct {
	Tiers         []Tier         `yaml:"tiers"`
	SpecialTitles []SpecialTitle `yaml:"special_titles"`
}

// DefaultRegistry возвращает встроенный набор правил.
func DefaultRegistry() *Registry {
	return &Registry{
		Tiers: []Tier{
			{MinLevel: 1, MaxLevel: 9, Title: "Novice", Color: "white", Effect: "none"},
			{MinLevel: 10, MaxLevel: 24, Title: "Adept", Color: "cyan", Effect: "shimmer"},
			{MinLevel: 25, MaxLevel: 49, Title: "Expert", Color: "yellow", Effect: "gradient"},
			{MinLevel: 50, MaxLevel: 250, Title: "Master", Color: "magenta", Effect: "plasma"},
		},
		SpecialTitles: []SpecialTitle{
			{Keyword: "merchant", Title: "Торговец", Color: "green", Priority: 10},
			{Keyword: "guard", Title: "Стража", Color: "blue", Priority: 5},
		},
	}
}

// Load читает реестр из YAML-файла. Пустые или отсутствующие секции
// добиваются встроенными значениями.
func Load(path string) (*Registry, error) {
	reg := DefaultRegistry()

	data, err := os.ReadFile(path)
	if err != nil {
		return reg, fmt.Errorf("ошибка чтения файла стилей: %w", err)
	}

	loaded := &Registry{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return reg, fmt.Errorf("ошибка разбора файла стилей: %w", err)
	}

	if len(loaded.Tiers) > 0 {
		reg.Tiers = loaded.Tiers
	}
	if len(loaded.SpecialTitles) > 0 {
		reg.SpecialTitles = loaded.SpecialTitles
	}
	reg.normalize()
	return reg, nil
}

// Save записывает реестр в YAML-файл (для генерации образца).
func Save(path string, reg *Registry) error {
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации стилей: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла стилей: %w", err)
	}
	return nil
}

// normalize сортирует титулы по убыванию приоритета и отбрасывает пустые
// ключевые слова.
func (r *Registry) normalize() {
	titles := r.SpecialTitles[:0]
	for _, st := range r.SpecialTitles {
		if strings.TrimSpace(st.Keyword) != "" {
			titles = append(titles, st)
		}
	}
	r.SpecialTitles = titles
	sort.SliceStable(r.SpecialTitles, func(i, j int) bool {
		return r.SpecialTitles[i].Priority > r.SpecialTitles[j].Priority
	})
}

// ResolveTier возвращает тир для уровня. Если ни один диапазон не подошёл,
// возвращается первый тир.
func (r *Registry) ResolveTier(level int) Tier {
	for _, t := range r.Tiers {
		if level >= t.MinLevel && level <= t.MaxLevel {
			return t
		}
	}
	if len(r.Tiers) > 0 {
		return r.Tiers[0]
	}
	return Tier{Title: "Unknown", Color: "white", Effect: "none"}
}

// MatchTitle ищет титул по вхождению ключевого слова в имя без учёта
// регистра. Найден титул с наибольшим приоритетом, ok=false — совпадений нет.
func (r *Registry) MatchTitle(name string) (SpecialTitle, bool) {
	lower := strings.ToLower(name)
	for _, st := range r.SpecialTitles {
		if strings.Contains(lower, strings.ToLower(st.Keyword)) {
			return st, true
		}
	}
	return SpecialTitle{}, false
}
