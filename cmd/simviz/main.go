package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/annelo/go-nameplates/internal/geometry"
	"github.com/annelo/go-nameplates/internal/worldsim"
)

const (
	width  = 60
	height = 24
)

var (
	seed     = flag.Int64("seed", 0, "Сид симуляции (0 = случайный)")
	steps    = flag.Int("steps", 600, "Число шагов симуляции")
	stepSec  = flag.Float64("dt", 0.1, "Длительность шага, секунды")
	worldDim = flag.Float64("extent", 1500, "Полуразмер отображаемой области мира")
)

func main() {
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	fmt.Printf("Seed: %d\n", *seed)

	sim := worldsim.New(*seed)

	marks := map[uint32]rune{}
	marks[sim.Spawn(worldsim.SpawnOptions{Name: "merchant", Level: 12, Pos: geometry.Vec3{X: 400, Y: 200}, Speed: 40})] = 'm'
	marks[sim.Spawn(worldsim.SpawnOptions{Name: "guard", Level: 28, Pos: geometry.Vec3{X: -300, Y: 500}, Speed: 25})] = 'g'
	marks[sim.Spawn(worldsim.SpawnOptions{Name: "raider", Level: 17, Pos: geometry.Vec3{X: 700, Y: -400}, Hostile: true, Speed: 60})] = 'r'
	marks[sim.Spawn(worldsim.SpawnOptions{Name: "companion", Level: 33, Pos: geometry.Vec3{X: -600, Y: -200}, Teammate: true, Speed: 45})] = 'c'

	// Прогоняем блуждание и копим следы
	trails := map[rune][]geometry.Vec3{}
	for i := 0; i < *steps; i++ {
		sim.Advance(*stepSec)
		for id, mark := range marks {
			if pos, ok := sim.EntityPosition(id); ok {
				trails[mark] = append(trails[mark], pos)
			}
		}
	}

	fmt.Println("\nСледы блуждания:")
	visualizeTrails(trails)
}

// visualizeTrails печатает следы сущностей на ASCII-карте. Начало следа
// помечается точкой, конец — заглавной буквой сущности.
func visualizeTrails(trails map[rune][]geometry.Vec3) {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	plot := func(pos geometry.Vec3, ch rune) {
		x := int((pos.X + *worldDim) / (2 * *worldDim) * float64(width))
		y := int((pos.Y + *worldDim) / (2 * *worldDim) * float64(height))
		if x < 0 || x >= width || y < 0 || y >= height {
			return
		}
		grid[y][x] = ch
	}

	for _, trail := range trails {
		for _, pos := range trail {
			plot(pos, '.')
		}
	}
	// Конечные точки поверх следов
	for mark, trail := range trails {
		if len(trail) == 0 {
			continue
		}
		plot(trail[0], mark)
		plot(trail[len(trail)-1], mark-'a'+'A')
	}

	for y := 0; y < height; y++ {
		fmt.Println(string(grid[y]))
	}
}
