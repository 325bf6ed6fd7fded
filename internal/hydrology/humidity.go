package hydrology

import "github.com/talgya/mapgen/internal/graph"

const (
	lakeHumidity      = 1.0
	lakeHumidityHops  = 4
	coastHumidity     = 0.25
	coastRainfall     = 1.0
	inlandRainfall    = 0.5
	riverHumidity     = 0.5
	riverBankHumidity = 0.25
)

// SpreadHumidity seeds humidity and extra rainfall from lakes, the coast
// and rivers, in that order.
func SpreadHumidity(g *graph.Graph) {
	for i := range g.Nodes {
		switch g.Nodes[i].Type {
		case graph.FreshWater:
			spreadFromLake(g, graph.NodeID(i), lakeHumidityHops, lakeHumidity)
		case graph.SaltWater:
			spreadFromCoast(g, graph.NodeID(i))
		}
	}

	for _, e := range g.Edges {
		if e.Water == 0 {
			continue
		}
		wetBank(g, e.Node)
		if e.Opposite != graph.NoEdge {
			wetBank(g, g.Edges[e.Opposite].Node)
		}
	}
}

// spreadFromLake sets the lake cell to magnitude and walks outwards
// breadth first, halving the magnitude per hop. A cell is only raised,
// never lowered, and a cell that is already wetter stops the walk.
func spreadFromLake(g *graph.Graph, root graph.NodeID, hops int, magnitude float64) {
	g.Nodes[root].Humidity = magnitude
	reached := map[graph.NodeID]bool{root: true}
	frontier := []graph.NodeID{root}

	for hop := 0; hop < hops && len(frontier) > 0; hop++ {
		magnitude /= 2
		var next []graph.NodeID
		for _, n := range frontier {
			for _, nb := range g.Neighbors(n) {
				if reached[nb] || g.Nodes[nb].Humidity > magnitude {
					continue
				}
				reached[nb] = true
				g.Nodes[nb].Humidity = magnitude
				next = append(next, nb)
			}
		}
		frontier = next
	}
}

func spreadFromCoast(g *graph.Graph, sea graph.NodeID) {
	for _, nb := range g.Neighbors(sea) {
		if g.Nodes[nb].Type == graph.SaltWater {
			continue
		}
		g.Nodes[nb].Humidity += coastHumidity
		g.Nodes[nb].ExtraRainfall += coastRainfall

		for _, inland := range g.Neighbors(nb) {
			n := &g.Nodes[inland]
			if n.Type != graph.SaltWater && n.ExtraRainfall == 0 {
				n.ExtraRainfall += inlandRainfall
			}
		}
	}
}

func wetBank(g *graph.Graph, bank graph.NodeID) {
	g.Nodes[bank].Humidity += riverHumidity
	for _, nb := range g.Neighbors(bank) {
		if g.Nodes[nb].Humidity < riverHumidity {
			g.Nodes[nb].Humidity += riverBankHumidity
		}
	}
}
