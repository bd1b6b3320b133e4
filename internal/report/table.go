package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type tableMode int

const (
	modeText tableMode = iota
	modeMarkdown
)

// grid is a thin wrapper over a go-pretty writer rendered as a terminal table
// or as a GitHub-flavoured Markdown table.
type grid struct {
	w    table.Writer
	mode tableMode
}

func newGrid(mode tableMode, header ...any) *grid {
	w := table.NewWriter()
	if mode == modeText {
		w.SetStyle(table.StyleLight)
	}
	w.AppendHeader(table.Row(header))
	return &grid{w: w, mode: mode}
}

func (g *grid) row(vals ...any) {
	g.w.AppendRow(table.Row(vals))
}

// wrap caps the width of column n (1-based) in text mode.
func (g *grid) wrap(n, width int) {
	if g.mode != modeText {
		return
	}
	g.w.SetColumnConfigs([]table.ColumnConfig{{Number: n, WidthMax: width, Align: text.AlignLeft}})
}

func (g *grid) String() string {
	if g.mode == modeMarkdown {
		return g.w.RenderMarkdown()
	}
	return g.w.Render()
}
