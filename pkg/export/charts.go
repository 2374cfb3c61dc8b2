package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/warehouse-sim/core/scenario"
)

// trafficLabel names the occupancy cost levels of the reference table.
func trafficLabel(c float64) string {
	switch c {
	case 0:
		return "Inelastic"
	case 0.1:
		return "Elastic"
	case 1:
		return "Highly elastic"
	default:
		return fmt.Sprintf("Occupancy cost %g", c)
	}
}

type group struct {
	agents  int
	lambdas []float64
	costs   []float64
	// series values keyed by occupancy cost then lambda
	cost map[float64]map[float64]float64
	path map[float64]map[float64]float64
}

func groupByAgents(rep scenario.Report) []*group {
	byAgents := map[int]*group{}
	for _, e := range rep.Entries {
		p := e.Scenario.Params
		g, ok := byAgents[p.Agents]
		if !ok {
			g = &group{
				agents: p.Agents,
				cost:   map[float64]map[float64]float64{},
				path:   map[float64]map[float64]float64{},
			}
			byAgents[p.Agents] = g
		}
		if _, ok := g.cost[p.OccupancyCost]; !ok {
			g.cost[p.OccupancyCost] = map[float64]float64{}
			g.path[p.OccupancyCost] = map[float64]float64{}
			g.costs = append(g.costs, p.OccupancyCost)
		}
		if !containsFloat(g.lambdas, p.Lambda) {
			g.lambdas = append(g.lambdas, p.Lambda)
		}
		g.cost[p.OccupancyCost][p.Lambda] = e.Result.UtilitarianCost
		g.path[p.OccupancyCost][p.Lambda] = e.Result.AveragePathLength
	}
	out := make([]*group, 0, len(byAgents))
	for _, g := range byAgents {
		sort.Float64s(g.lambdas)
		sort.Float64s(g.costs)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].agents < out[j].agents })
	return out
}

func containsFloat(xs []float64, v float64) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func lineChart(title, yName string, g *group, values map[float64]map[float64]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Lambda"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithLegendOpts(opts.Legend{}),
	)
	xAxis := make([]string, len(g.lambdas))
	for i, l := range g.lambdas {
		xAxis[i] = ftoa(l)
	}
	line.SetXAxis(xAxis)
	for _, c := range g.costs {
		data := make([]opts.LineData, len(g.lambdas))
		for i, l := range g.lambdas {
			if v, ok := values[c][l]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(trafficLabel(c), data)
	}
	return line
}

// WriteHTML renders, for every agent count of the report, the utilitarian
// cost and the average path length against lambda with one series per
// occupancy cost.
func WriteHTML(w io.Writer, rep scenario.Report) error {
	page := components.NewPage()
	page.PageTitle = "Warehouse simulation report"
	for _, g := range groupByAgents(rep) {
		page.AddCharts(
			lineChart(fmt.Sprintf("Utilitarian cost - %d agents", g.agents), "Cost", g, g.cost),
			lineChart(fmt.Sprintf("Number of nodes - %d agents", g.agents), "Number of nodes", g, g.path),
		)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
