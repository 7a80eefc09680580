package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/specialistvlad/flowgridgo/internal/scheduler"
)

// writeReport prints per-stage execution statistics to the output writer.
func (a *App) writeReport(s *scheduler.Scheduler) error {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Stage", "Kind", "Runs", "Threads", "Last duration", "Critical path"})

	g := s.Graph()
	for _, st := range a.pipeline.Stages() {
		var last, critical time.Duration
		if id, ok := g.ID(st); ok {
			stats := g.Stats(id)
			last, critical = stats.LastDuration, stats.CriticalPath
		}
		table.Append([]string{
			st.Name(),
			st.Kind(),
			fmt.Sprint(st.Runs()),
			fmt.Sprint(st.ResourcePool().Threads()),
			last.Round(time.Microsecond).String(),
			critical.Round(time.Microsecond).String(),
		})
	}
	table.Render()
	a.logger.Debug("Execution report written.", "graph_nodes", g.Len(), "graph_edges", g.EdgeCount())

	_, err := fmt.Fprint(a.outW, b.String())
	return err
}
