package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"go.uber.org/zap"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/frameloop"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/pipeline"
	"github.com/annelo/go-nameplates/internal/presentcache"
	"github.com/annelo/go-nameplates/internal/snapshot"
	"github.com/annelo/go-nameplates/internal/stats"
	"github.com/annelo/go-nameplates/internal/styles"
	"github.com/annelo/go-nameplates/internal/worldsim"
)

var (
	configPath = flag.String("config", "overlay.yaml", "Путь к файлу настроек")
	stylesPath = flag.String("styles", "styles.yaml", "Путь к файлу стилей")
	logPath    = flag.String("log", "overlay.log", "Путь к файлу логов")
	seed       = flag.Int64("seed", 0, "Сид симуляции мира (0 = случайный)")
	fps        = flag.Int("fps", 60, "Частота презентационных кадров")
)

// Цвета отношений для нейм-плейтов
var dispoColors = map[snapshot.Disposition]termbox.Attribute{
	snapshot.DispositionNeutral:  termbox.ColorWhite,
	snapshot.DispositionHostile:  termbox.ColorRed,
	snapshot.DispositionFriendly: termbox.ColorBlue,
}

// Имена цветов реестра стилей
var styleColors = map[string]termbox.Attribute{
	"white":   termbox.ColorWhite,
	"red":     termbox.ColorRed,
	"green":   termbox.ColorGreen,
	"blue":    termbox.ColorBlue,
	"yellow":  termbox.ColorYellow,
	"cyan":    termbox.ColorCyan,
	"magenta": termbox.ColorMagenta,
}

func main() {
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	logger, err := buildLogger(*logPath)
	if err != nil {
		log.Fatalf("Не удалось создать логгер: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Настройки: загружаем, а при отсутствии файла записываем значения
	// по умолчанию как образец
	cfg, err := config.Load(*configPath)
	if err != nil {
		sugar.Infow("файл настроек не загружен, используются значения по умолчанию", "error", err)
		if werr := config.Save(*configPath, cfg); werr != nil {
			sugar.Warnw("не удалось записать образец настроек", "error", werr)
		}
	}

	styleReg, err := styles.Load(*stylesPath)
	if err != nil {
		sugar.Infow("файл стилей не загружен, используются встроенные", "error", err)
	}

	sim := buildWorld(*seed)
	sim.SetLogger(sugar)

	pl := pipeline.New(sim, cfg)
	pl.SetLogger(sugar)
	pl.PublishExpvar("nameplates")

	if err := termbox.Init(); err != nil {
		log.Fatalf("Не удалось инициализировать terminal UI: %v", err)
	}
	defer termbox.Close()

	w, h := termbox.Size()
	sim.SetViewport(float64(w), float64(h))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// world-контекст: единственная горутина, где продюсер читает мир
	go pl.Queue().Run(ctx)

	renderer := &termRenderer{styles: styleReg}
	input := newInputSystem()

	deps := frameloop.Dependencies{Sim: sim, Pipeline: pl, Renderer: renderer}
	loop := frameloop.NewLoop(
		time.Second/time.Duration(*fps),
		deps,
		frameloop.NewSimSystem(),
		input,
		frameloop.NewOverlaySystem(),
		frameloop.NewStatsSystem(600),
	)
	go loop.Run(ctx)

	// Главная горутина читает события терминала и транслирует их в команды,
	// исполняемые на кадре (презентационный контекст)
	for {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
				sugar.Infow("завершение по команде пользователя")
				return
			}
			handleKey(ev, sim, input, sugar)
		case termbox.EventResize:
			sim.SetViewport(float64(ev.Width), float64(ev.Height))
		case termbox.EventError:
			sugar.Errorw("ошибка терминала", "error", ev.Err)
			return
		}
	}
}

// buildLogger создаёт zap-логгер, пишущий в файл: терминал занят оверлеем.
func buildLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	// Стандартный log (frameloop) тоже уводим в файл
	zap.RedirectStdLog(logger)
	return logger, nil
}

// buildWorld наполняет симуляцию персонажами демо-сцены.
func buildWorld(seed int64) *worldsim.Sim {
	sim := worldsim.New(seed)

	sim.Spawn(worldsim.SpawnOptions{Name: "wandering merchant", Level: 12, Pos: geometry.Vec3{X: 600, Y: 150}, Talkable: true, Speed: 40})
	sim.Spawn(worldsim.SpawnOptions{Name: "town guard", Level: 28, Pos: geometry.Vec3{X: 450, Y: -220}, Talkable: true, Speed: 25})
	sim.Spawn(worldsim.SpawnOptions{Name: "bandit raider", Level: 17, Pos: geometry.Vec3{X: 900, Y: 300}, Hostile: true, Speed: 60})
	sim.Spawn(worldsim.SpawnOptions{Name: "bandit archer", Level: 21, Pos: geometry.Vec3{X: 1100, Y: -150}, Hostile: true, Speed: 55})
	sim.Spawn(worldsim.SpawnOptions{Name: "loyal companion", Level: 33, Pos: geometry.Vec3{X: 200, Y: 80}, Teammate: true, Speed: 45})
	sim.Spawn(worldsim.SpawnOptions{Name: "elder sage", Level: 61, Pos: geometry.Vec3{X: 1500, Y: 500}, Talkable: true, Speed: 15})

	// Стена, за которой сущности будут плавно гаснуть
	sim.AddObstacle(geometry.Vec3{X: 700, Y: 100, Z: 60}, 120)

	return sim
}

// handleKey обрабатывает управление демо. Мутации симуляции защищены её
// же мьютексом и выполняются сразу; команды конвейеру уходят через
// inputSystem и выполняются в кадровом контексте.
func handleKey(ev termbox.Event, sim *worldsim.Sim, input *inputSystem, sugar *zap.SugaredLogger) {
	const step = 30.0
	const turn = 0.1

	switch ev.Key {
	case termbox.KeyArrowUp:
		sim.MoveViewer(step, 0, 0)
	case termbox.KeyArrowDown:
		sim.MoveViewer(-step, 0, 0)
	case termbox.KeyArrowLeft:
		sim.MoveViewer(0, 0, turn)
	case termbox.KeyArrowRight:
		sim.MoveViewer(0, 0, -turn)
	case termbox.KeySpace:
		input.Submit(func(pl *pipeline.Pipeline) {
			pl.Toggle()
		})
	}

	switch ev.Ch {
	case 'r', 'R':
		// Горячая перезагрузка настроек: кеши сбрасываются, новые пороги
		// действуют немедленно
		cfg, err := config.Load(*configPath)
		if err != nil {
			sugar.Warnw("перезагрузка настроек не удалась", "error", err)
			return
		}
		input.Submit(func(pl *pipeline.Pipeline) {
			pl.ApplyConfig(cfg)
		})
		sugar.Infow("настройки перезагружены")
	case 'm', 'M':
		sim.SetAllowed(false)
	case 'g', 'G':
		sim.SetAllowed(true)
	}
}

// termRenderer — потребитель трансформов: рисует нейм-плейты в терминале.
type termRenderer struct {
	styles *styles.Registry
}

// RenderFrame отрисовывает кадр. Вызывается из горутины цикла кадров.
func (r *termRenderer) RenderFrame(transforms []presentcache.Transform, st stats.Snapshot) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	for _, tr := range transforms {
		r.drawNameplate(tr)
	}

	w, _ := termbox.Size()
	hud := fmt.Sprintf(" plates=%d cache_evictions=%d occl_checks=%d occl_hits=%d skipped=%d | стрелки: движение, space: вкл/выкл, r: reload, m/g: меню/игра, esc: выход",
		len(transforms), st.CacheEvictions, st.OcclusionChecks, st.OcclusionCacheHits, st.UpdatesSkipped)
	drawText(0, 0, w, hud, termbox.ColorYellow, termbox.ColorDefault)

	termbox.Flush()
}

// drawNameplate рисует одно имя с учётом раскрытия, прозрачности и стиля.
func (r *termRenderer) drawNameplate(tr presentcache.Transform) {
	name := tr.Name
	if runes := []rune(name); tr.RevealRunes < len(runes) {
		name = string(runes[:tr.RevealRunes])
	}
	if name == "" {
		return
	}

	label := fmt.Sprintf("%s [%d]", name, tr.Level)

	fg := dispoColors[tr.Dispo]
	if st, ok := r.styles.MatchTitle(tr.Name); ok {
		if c, ok := styleColors[st.Color]; ok {
			fg = c
		}
		label = fmt.Sprintf("%s <%s>", label, st.Title)
	} else if tr.Dispo == snapshot.DispositionNeutral && !tr.IsViewer {
		// Нейтралов без титула красим по уровневому тиру
		tier := r.styles.ResolveTier(tr.Level)
		if c, ok := styleColors[tier.Color]; ok {
			fg = c
		}
	}

	// Прозрачность и перекрытие передаём яркостью символов
	visibility := tr.Alpha * tr.Occlusion
	switch {
	case visibility > 0.66:
		fg |= termbox.AttrBold
	case visibility < 0.33:
		fg = termbox.ColorDarkGray
	}

	// Центрируем подпись по сглаженной экранной позиции
	x := int(tr.Screen.X) - runewidth.StringWidth(label)/2
	y := int(tr.Screen.Y)
	drawText(x, y, x+runewidth.StringWidth(label), label, fg, termbox.ColorDefault)
}

// drawText выводит строку, обрезая её по границе maxX.
func drawText(x, y, maxX int, text string, fg, bg termbox.Attribute) {
	cx := x
	for _, ch := range text {
		if cx >= maxX {
			break
		}
		termbox.SetCell(cx, y, ch, fg, bg)
		cx += runewidth.RuneWidth(ch)
	}
}

// inputSystem переносит команды конвейеру из горутины событий терминала в
// кадровый контекст: состояние конвейера трогает только горутина цикла.
type inputSystem struct {
	commands chan func(*pipeline.Pipeline)
	deps     frameloop.Dependencies
}

func newInputSystem() *inputSystem {
	return &inputSystem{commands: make(chan func(*pipeline.Pipeline), 8)}
}

func (i *inputSystem) Name() string { return "input" }

func (i *inputSystem) Init(deps frameloop.Dependencies) error {
	i.deps = deps
	return nil
}

// Submit ставит команду в очередь. Переполненная очередь роняет команду:
// пользователь нажмёт ещё раз.
func (i *inputSystem) Submit(cmd func(*pipeline.Pipeline)) {
	select {
	case i.commands <- cmd:
	default:
	}
}

func (i *inputSystem) Tick(ctx context.Context, dt time.Duration) {
	for {
		select {
		case cmd := <-i.commands:
			cmd(i.deps.Pipeline)
		default:
			return
		}
	}
}
