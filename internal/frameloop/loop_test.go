package frameloop_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/frameloop"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/pipeline"
	"github.com/annelo/go-nameplates/internal/presentcache"
	"github.com/annelo/go-nameplates/internal/stats"
	"github.com/annelo/go-nameplates/internal/worldsim"
)

type recordSystem struct {
	name    string
	inited  bool
	ticks   atomic.Int64
	onTick  func()
	tickLog *[]string
}

func (r *recordSystem) Name() string { return r.name }

func (r *recordSystem) Init(deps frameloop.Dependencies) error {
	r.inited = true
	return nil
}

func (r *recordSystem) Tick(ctx context.Context, dt time.Duration) {
	r.ticks.Add(1)
	if r.tickLog != nil {
		*r.tickLog = append(*r.tickLog, r.name)
	}
	if r.onTick != nil {
		r.onTick()
	}
}

func TestLoop_InitAndStepOrder(t *testing.T) {
	var order []string
	a := &recordSystem{name: "a", tickLog: &order}
	b := &recordSystem{name: "b", tickLog: &order}

	loop := frameloop.NewLoop(time.Second/60, frameloop.Dependencies{}, a, b)
	if !a.inited || !b.inited {
		t.Fatalf("all systems must be initialized by NewLoop")
	}

	loop.Step(context.Background(), time.Second/60)
	loop.Step(context.Background(), time.Second/60)

	want := []string{"a", "b", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("tick order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("tick order = %v, want %v", order, want)
		}
	}
}

func TestLoop_RunSurvivesPanickingSystem(t *testing.T) {
	panicky := &recordSystem{name: "panicky", onTick: func() { panic("boom") }}
	after := &recordSystem{name: "after"}

	loop := frameloop.NewLoop(time.Millisecond, frameloop.Dependencies{}, panicky, after)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if after.ticks.Load() == 0 {
		t.Fatalf("system after a panicking one must still tick")
	}
	if panicky.ticks.Load() < 2 {
		t.Fatalf("panicking system must keep being invoked, got %d ticks", panicky.ticks.Load())
	}
}

// captureRenderer запоминает последний отрисованный кадр.
type captureRenderer struct {
	frames     int
	transforms []presentcache.Transform
}

func (c *captureRenderer) RenderFrame(transforms []presentcache.Transform, st stats.Snapshot) {
	c.frames++
	c.transforms = transforms
}

func TestOverlaySystem_FeedsRenderer(t *testing.T) {
	sim := worldsim.New(42)
	sim.Spawn(worldsim.SpawnOptions{Name: "guard", Level: 5, Pos: geometry.Vec3{X: 300}})

	cfg := config.Default()
	cfg.Overlay.WarmupFrames = 0
	cfg.Reveal.Enabled = false
	pl := pipeline.New(sim, cfg)

	renderer := &captureRenderer{}
	deps := frameloop.Dependencies{Sim: sim, Pipeline: pl, Renderer: renderer}
	loop := frameloop.NewLoop(time.Second/60, deps, frameloop.NewSimSystem(), frameloop.NewOverlaySystem())

	ctx := context.Background()
	loop.Step(ctx, time.Second/60)
	pl.Queue().RunPending()
	loop.Step(ctx, time.Second/60)

	if renderer.frames != 2 {
		t.Fatalf("renderer must be called every frame, got %d", renderer.frames)
	}
	if len(renderer.transforms) == 0 {
		t.Fatalf("second frame must carry transforms")
	}
}
