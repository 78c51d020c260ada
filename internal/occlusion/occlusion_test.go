package occlusion_test

import (
	"testing"

	"github.com/annelo/go-nameplates/internal/config"
	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/occlusion"
	"github.com/annelo/go-nameplates/internal/worldstate"
)

type fakeEntity struct {
	id  uint32
	pos geometry.Vec3
}

func (f *fakeEntity) ID() uint32              { return f.id }
func (f *fakeEntity) DisplayName() string     { return "npc" }
func (f *fakeEntity) Level() int              { return 1 }
func (f *fakeEntity) Position() geometry.Vec3 { return f.pos }
func (f *fakeEntity) Height() float64         { return 64 }
func (f *fakeEntity) IsDead() bool            { return false }

// fakeWorld отвечает ровно то, что в него положили: камера, результат
// запроса прямой видимости и признак его успеха.
type fakeWorld struct {
	cam    geometry.Camera
	hasCam bool

	losVisible bool
	losOK      bool
	losCalls   int
}

func (w *fakeWorld) Viewer() (worldstate.EntityRef, bool)          { return nil, false }
func (w *fakeWorld) ForEachEntity(func(worldstate.EntityRef) bool) {}
func (w *fakeWorld) Camera() (geometry.Camera, bool)               { return w.cam, w.hasCam }
func (w *fakeWorld) IsHostile(a, b worldstate.EntityRef) bool      { return false }
func (w *fakeWorld) IsTeammate(e worldstate.EntityRef) bool        { return false }
func (w *fakeWorld) CanTalkTo(e worldstate.EntityRef) bool         { return false }
func (w *fakeWorld) OverlayAllowed() bool                          { return true }

func (w *fakeWorld) HasLineOfSight(viewer worldstate.EntityRef, to geometry.Vec3) (bool, bool) {
	w.losCalls++
	return w.losVisible, w.losOK
}

func forwardCamera() geometry.Camera {
	return geometry.Camera{
		Forward: geometry.Vec3{X: 1},
		Up:      geometry.Vec3{Z: 1},
		Width:   1920, Height: 1080,
	}
}

func testConfig() config.Occlusion {
	return config.Occlusion{
		Enabled:       true,
		CheckInterval: 3,
		CloseDistance: 100,
		BehindDot:     -0.2,
	}
}

func TestIsOccluded_DisabledNeverHides(t *testing.T) {
	world := &fakeWorld{hasCam: true, cam: forwardCamera()}
	cfg := testConfig()
	cfg.Enabled = false
	checker := occlusion.NewChecker(world, cfg)

	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: 500}}
	viewer := &fakeEntity{id: 2}
	if checker.IsOccluded(target, viewer, target.pos) {
		t.Fatalf("disabled checker must never hide")
	}
}

func TestIsOccluded_NilEntitiesFailOpen(t *testing.T) {
	world := &fakeWorld{hasCam: true, cam: forwardCamera()}
	checker := occlusion.NewChecker(world, testConfig())

	if checker.IsOccluded(nil, &fakeEntity{id: 2}, geometry.Vec3{X: 500}) {
		t.Fatalf("nil target must fail open")
	}
	if checker.IsOccluded(&fakeEntity{id: 1}, nil, geometry.Vec3{X: 500}) {
		t.Fatalf("nil viewer must fail open")
	}
}

func TestIsOccluded_NoCameraFailOpen(t *testing.T) {
	world := &fakeWorld{hasCam: false}
	checker := occlusion.NewChecker(world, testConfig())

	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: 500}}
	if checker.IsOccluded(target, &fakeEntity{id: 2}, target.pos) {
		t.Fatalf("missing camera must fail open")
	}
	if world.losCalls != 0 {
		t.Fatalf("LOS must not be queried without a camera")
	}
}

func TestIsOccluded_CloseDistanceAlwaysVisible(t *testing.T) {
	// LOS reports "blocked", but the target is within close range
	world := &fakeWorld{hasCam: true, cam: forwardCamera(), losVisible: false, losOK: true}
	checker := occlusion.NewChecker(world, testConfig())

	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: 50}}
	if checker.IsOccluded(target, &fakeEntity{id: 2}, target.pos) {
		t.Fatalf("target within close distance must be visible")
	}
	if world.losCalls != 0 {
		t.Fatalf("close range must short-circuit before LOS")
	}
}

func TestIsOccluded_BehindCamera(t *testing.T) {
	world := &fakeWorld{hasCam: true, cam: forwardCamera(), losVisible: true, losOK: true}
	checker := occlusion.NewChecker(world, testConfig())

	// Directly behind the camera: dot = -1 < -0.2
	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: -500}}
	if !checker.IsOccluded(target, &fakeEntity{id: 2}, target.pos) {
		t.Fatalf("target behind camera must be hidden")
	}
	if world.losCalls != 0 {
		t.Fatalf("behind-camera test must short-circuit before LOS")
	}

	// Slightly off-axis but still in front: dot > -0.2
	side := &fakeEntity{id: 3, pos: geometry.Vec3{X: 200, Y: 400}}
	if checker.IsOccluded(side, &fakeEntity{id: 2}, side.pos) {
		t.Fatalf("target in front of camera must pass the behind test")
	}
}

func TestIsOccluded_LineOfSight(t *testing.T) {
	world := &fakeWorld{hasCam: true, cam: forwardCamera(), losVisible: false, losOK: true}
	checker := occlusion.NewChecker(world, testConfig())

	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: 500}}
	viewer := &fakeEntity{id: 2}

	if !checker.IsOccluded(target, viewer, target.pos) {
		t.Fatalf("blocked LOS must hide the target")
	}

	world.losVisible = true
	if checker.IsOccluded(target, viewer, target.pos) {
		t.Fatalf("clear LOS must show the target")
	}
}

func TestIsOccluded_LOSFailureFailOpen(t *testing.T) {
	world := &fakeWorld{hasCam: true, cam: forwardCamera(), losVisible: false, losOK: false}
	checker := occlusion.NewChecker(world, testConfig())

	target := &fakeEntity{id: 1, pos: geometry.Vec3{X: 500}}
	if checker.IsOccluded(target, &fakeEntity{id: 2}, target.pos) {
		t.Fatalf("failed LOS query must fail open")
	}
}
