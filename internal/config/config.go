// Package config описывает настройки оверлея и их загрузку из YAML.
// Конвейер терпит перезагрузку настроек на лету: новое значение передаётся
// в Pipeline.ApplyConfig, который сбрасывает кеши.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scan — параметры сканирования сущностей world-контекстом.
type Scan struct {
	// MaxDistance — радиус сканирования в мировых единицах.
	MaxDistance float64 `yaml:"max_distance"`
	// MaxEntities — жёсткий потолок записей в одном снапшоте (K).
	MaxEntities int `yaml:"max_entities"`
	// MaxScan — потолок итераций по кандидатам за один проход.
	MaxScan int `yaml:"max_scan"`
	// VerticalOffset — высота якоря имени над головой сущности.
	VerticalOffset float64 `yaml:"vertical_offset"`
	// HideViewer скрывает нейм-плейт самого наблюдателя.
	HideViewer bool `yaml:"hide_viewer"`
}

// Fade — дистанционное затухание прозрачности.
type Fade struct {
	StartDistance float64 `yaml:"start_distance"`
	EndDistance   float64 `yaml:"end_distance"`
}

// Scale — дистанционное уменьшение размера имени.
type Scale struct {
	StartDistance float64 `yaml:"start_distance"`
	EndDistance   float64 `yaml:"end_distance"`
	// Minimum — нижний предел множителя размера.
	Minimum float64 `yaml:"minimum"`
	// Gamma < 1 держит имя крупным дольше, затем быстро уменьшает.
	Gamma float64 `yaml:"gamma"`
}

// Smoothing — времена установления сглаженных величин и политика позиции.
type Smoothing struct {
	// AlphaSettle/ScaleSettle/OcclusionSettle — settle-времена в секундах
	// (время выхода на 1% от цели независимо от частоты кадров).
	AlphaSettle     float64 `yaml:"alpha_settle"`
	ScaleSettle     float64 `yaml:"scale_settle"`
	OcclusionSettle float64 `yaml:"occlusion_settle"`

	// PositionHistory — размер кольца скользящего среднего позиции.
	PositionHistory int `yaml:"position_history"`
	// LargeMoveThreshold — скачок в пикселях, после которого включается
	// быстрый режим (телепорт, смена камеры).
	LargeMoveThreshold float64 `yaml:"large_move_threshold"`
	// LargeMoveBlend — доля подмешивания среднего в быстром режиме.
	LargeMoveBlend float64 `yaml:"large_move_blend"`
}

// Occlusion — настройки эвристики видимости.
type Occlusion struct {
	Enabled bool `yaml:"enabled"`
	// CheckInterval — минимум кадров между перепроверками одной сущности.
	CheckInterval int `yaml:"check_interval"`
	// CloseDistance — ближе этого расстояния от камеры сущность всегда видима.
	CloseDistance float64 `yaml:"close_distance"`
	// BehindDot — порог скалярного произведения для теста "за камерой".
	// -0.2 соответствует ~101°: чуть дальше геометрических 90°, чтобы имена
	// не мигали у края экрана при поворотах.
	BehindDot float64 `yaml:"behind_dot"`
}

// Cache — жизненный цикл записей презентационного кеша.
type Cache struct {
	// GraceFrames — сколько кадров запись переживает исчезновение сущности
	// из снапшота, прежде чем будет вычищена.
	GraceFrames uint32 `yaml:"grace_frames"`
	// ReentryFrames — после скольких кадров отсутствия повторное появление
	// считается новым входом и перезапускает анимацию раскрытия.
	ReentryFrames uint32 `yaml:"reentry_frames"`
}

// Reveal — анимация посимвольного раскрытия имени.
type Reveal struct {
	Enabled bool `yaml:"enabled"`
	// CharsPerSecond — скорость раскрытия.
	CharsPerSecond float64 `yaml:"chars_per_second"`
	// Delay — задержка перед началом в секундах.
	Delay float64 `yaml:"delay"`
}

// Overlay — верхнеуровневое поведение оверлея.
type Overlay struct {
	// WarmupFrames — пауза после возврата из невалидного состояния
	// (загрузка, меню), пока сцена устаканивается.
	WarmupFrames int `yaml:"warmup_frames"`
	// MinVisibleAlpha — ниже этого значения нейм-плейт не рисуется.
	MinVisibleAlpha float64 `yaml:"min_visible_alpha"`
	// ScreenMargin — допуск в пикселях для частично видимых имён у краёв.
	ScreenMargin float64 `yaml:"screen_margin"`
}

// Config — полный набор настроек конвейера.
type Config struct {
	Scan      Scan      `yaml:"scan"`
	Fade      Fade      `yaml:"fade"`
	Scale     Scale     `yaml:"scale"`
	Smoothing Smoothing `yaml:"smoothing"`
	Occlusion Occlusion `yaml:"occlusion"`
	Cache     Cache     `yaml:"cache"`
	Reveal    Reveal    `yaml:"reveal"`
	Overlay   Overlay   `yaml:"overlay"`
}

// Default возвращает настройки по умолчанию.
func Default() Config {
	return Config{
		Scan: Scan{
			MaxDistance:    3000,
			MaxEntities:    16,
			MaxScan:        32,
			VerticalOffset: 8,
			HideViewer:     false,
		},
		Fade: Fade{
			StartDistance: 200,
			EndDistance:   2500,
		},
		Scale: Scale{
			StartDistance: 200,
			EndDistance:   2500,
			Minimum:       0.1,
			Gamma:         0.5,
		},
		Smoothing: Smoothing{
			AlphaSettle:        0.46,
			ScaleSettle:        0.46,
			OcclusionSettle:    0.58,
			PositionHistory:    8,
			LargeMoveThreshold: 50,
			LargeMoveBlend:     0.5,
		},
		Occlusion: Occlusion{
			Enabled:       true,
			CheckInterval: 3,
			CloseDistance: 100,
			BehindDot:     -0.2,
		},
		Cache: Cache{
			GraceFrames:   60,
			ReentryFrames: 30,
		},
		Reveal: Reveal{
			Enabled:        true,
			CharsPerSecond: 30,
			Delay:          0,
		},
		Overlay: Overlay{
			WarmupFrames:    300,
			MinVisibleAlpha: 0.02,
			ScreenMargin:    100,
		},
	}
}

// Clamp приводит значения к допустимым диапазонам. Кривые руки в YAML не
// должны ронять конвейер — значения молча подтягиваются к границам.
func (c *Config) Clamp() {
	if c.Scan.MaxEntities < 1 {
		c.Scan.MaxEntities = 1
	}
	if c.Scan.MaxScan < c.Scan.MaxEntities {
		c.Scan.MaxScan = c.Scan.MaxEntities
	}
	if c.Scan.MaxDistance < 0 {
		c.Scan.MaxDistance = 0
	}
	if c.Fade.EndDistance <= c.Fade.StartDistance {
		c.Fade.EndDistance = c.Fade.StartDistance + 1
	}
	if c.Scale.EndDistance <= c.Scale.StartDistance {
		c.Scale.EndDistance = c.Scale.StartDistance + 1
	}
	if c.Scale.Minimum < 0.01 {
		c.Scale.Minimum = 0.01
	}
	if c.Scale.Minimum > 1 {
		c.Scale.Minimum = 1
	}
	if c.Scale.Gamma <= 0 {
		c.Scale.Gamma = 0.5
	}
	if c.Smoothing.PositionHistory < 1 {
		c.Smoothing.PositionHistory = 1
	}
	if c.Smoothing.LargeMoveBlend < 0 {
		c.Smoothing.LargeMoveBlend = 0
	}
	if c.Smoothing.LargeMoveBlend > 1 {
		c.Smoothing.LargeMoveBlend = 1
	}
	if c.Occlusion.CheckInterval < 1 {
		c.Occlusion.CheckInterval = 1
	}
	if c.Occlusion.CloseDistance < 0 {
		c.Occlusion.CloseDistance = 0
	}
	if c.Cache.GraceFrames < 1 {
		c.Cache.GraceFrames = 1
	}
	if c.Reveal.CharsPerSecond <= 0 {
		c.Reveal.CharsPerSecond = 30
	}
	if c.Reveal.Delay < 0 {
		c.Reveal.Delay = 0
	}
	if c.Overlay.WarmupFrames < 0 {
		c.Overlay.WarmupFrames = 0
	}
	if c.Overlay.MinVisibleAlpha < 0 {
		c.Overlay.MinVisibleAlpha = 0
	}
}

// Load читает настройки из YAML-файла поверх значений по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("ошибка чтения файла настроек: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("ошибка разбора файла настроек: %w", err)
	}

	cfg.Clamp()
	return cfg, nil
}

// Save записывает настройки в YAML-файл.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла настроек: %w", err)
	}
	return nil
}
