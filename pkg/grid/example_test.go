package grid_test

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
	"github.com/matzehuels/gridcut/pkg/overlay"
)

func Example() {
	ext, _ := feature.NewExtent(0, 0, 10, 10)

	policy := grid.DefaultPolicy()
	policy.CellSize.Set(5)

	g, _ := grid.New(ext, policy)
	fmt.Println("cells:", g.CellCount())

	fs := feature.Collection{
		feature.New("house", geom.Polygon{{{X: 5.5, Y: 5.5}, {X: 6.5, Y: 5.5}, {X: 6.5, Y: 6.5}, {X: 5.5, Y: 6.5}}}),
	}
	for _, c := range g.Cells() {
		fmt.Printf("%d [%s] %d feature(s)\n", c.Index, c.Bounds, len(g.CullToCell(c.Index, fs)))
	}
	// Output:
	// cells: 4
	// 0 [0,0 => 5,5] 0 feature(s)
	// 1 [5,0 => 10,5] 0 feature(s)
	// 2 [0,5 => 5,10] 0 feature(s)
	// 3 [5,5 => 10,10] 1 feature(s)
}

func ExampleGridder_Cull_cropping() {
	ext, _ := feature.NewExtent(0, 0, 10, 10)
	policy := grid.PolicyFromConfig(map[string]string{
		"cell_size":         "5",
		"culling_technique": "crop",
	})

	g, _ := grid.New(ext, policy, grid.WithOverlay(overlay.NewPlanar()))

	park := feature.New("park", geom.Polygon{{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}}})
	for i := 0; i < g.CellCount(); i++ {
		res := g.Cull(i, feature.Collection{park})
		for _, f := range res.Features {
			fmt.Printf("cell %d: %s area %.1f\n", i, f.ID, math.Abs(f.Geometry.(geom.Polygonal).Area()))
		}
	}
	// Output:
	// cell 0: park area 9.0
	// cell 1: park area 9.0
	// cell 2: park area 9.0
	// cell 3: park area 9.0
}

func ExamplePolicy_Config() {
	p := grid.DefaultPolicy()
	p.CellSize.Set(250)
	p.Technique.Set(grid.CullByCropping)

	fmt.Println(p.Config())
	// Output:
	// cell_size=250 culling_technique=crop
}
