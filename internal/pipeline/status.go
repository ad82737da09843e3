package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"vidforge/internal/project"
)

type stageState string

const (
	statePending  stageState = "pending"
	stateRunning  stageState = "running"
	stateComplete stageState = "complete"
	stateFailed   stageState = "failed"
	stateSkipped  stageState = "skipped"
)

type boardRow struct {
	name    StageName
	state   stageState
	elapsed time.Duration
	detail  string
}

// board renders the stage table. A nil writer disables rendering.
type board struct {
	out   io.Writer
	title string
	rows  []boardRow
}

func newBoard(out io.Writer, cfg *project.Config, plan []PlannedStage) *board {
	b := &board{
		out:   out,
		title: fmt.Sprintf("%s · %s", cfg.Name, cfg.AudioStrategy.Label()),
	}
	for _, p := range plan {
		row := boardRow{name: p.Name, state: statePending}
		if p.Skipped {
			row.state = stateSkipped
			row.detail = "--skip-generation"
		}
		b.rows = append(b.rows, row)
	}
	return b
}

func (b *board) start(name StageName) {
	if row := b.row(name); row != nil {
		row.state = stateRunning
	}
	b.render()
}

func (b *board) finish(res StageResult) {
	row := b.row(res.Name)
	if row == nil {
		return
	}
	row.elapsed = res.Elapsed
	switch {
	case res.Success:
		row.state = stateComplete
		row.detail = res.Note
	case res.Name.Fatal():
		row.state = stateFailed
		row.detail = res.Error
	default:
		// Non-fatal failures are still failures; the detail says the run went on.
		row.state = stateFailed
		row.detail = "continued: " + res.Error
	}
	b.render()
}

func (b *board) row(name StageName) *boardRow {
	for i := range b.rows {
		if b.rows[i].name == name {
			return &b.rows[i]
		}
	}
	return nil
}

func (b *board) render() {
	if b.out == nil {
		return
	}
	_, _ = fmt.Fprintln(b.out, b.String())
}

func (b *board) String() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(b.title)
	tw.AppendHeader(table.Row{"#", "Stage", "Status", "Elapsed", "Detail"})
	for i, row := range b.rows {
		elapsed := ""
		if row.elapsed > 0 {
			elapsed = row.elapsed.Round(100 * time.Millisecond).String()
		}
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), string(row.name), string(row.state), elapsed, truncate(row.detail, 60)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
