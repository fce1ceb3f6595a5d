package cli

import (
	"fmt"

	"github.com/koopa0/nlqagent/internal/cli/ui"
	"github.com/koopa0/nlqagent/internal/orchestrator"
)

// renderStream drains events, printing a line per StreamEvent as it
// arrives so progress is visible for multi-step plans.
func (c *CLI) renderStream(events <-chan orchestrator.StreamEvent) {
	for ev := range events {
		switch ev.Type {
		case orchestrator.EventStart:
			ui.Muted.Println("…thinking")

		case orchestrator.EventPlanning:
			ui.Info.Printf("planned %d step(s)\n", len(ev.Steps))

		case orchestrator.EventStepStarted:
			ui.Muted.Printf("  [%d] %s: %s\n", ev.Index, ev.Kind, ev.Description)

		case orchestrator.EventToolCall:
			c.renderStepOutcome("tool "+ev.ToolName, ev.Status, ev.Data)

		case orchestrator.EventQuery:
			if ev.SQL != "" {
				fmt.Println("    " + ui.FormatSQLQuery(ev.SQL))
			}
			c.renderStepOutcome("query", ev.Status, ev.Data)

		case orchestrator.EventVisualization:
			c.renderStepOutcome("chart", ev.Status, ev.ChartData)

		case orchestrator.EventResult:
			c.renderResult(ev.Final)

		case orchestrator.EventError:
			ui.Error.Printf("error: %s\n", ev.Message)

		case orchestrator.EventDone:
			// nothing to print; loop ends when the channel closes
		}
	}
}

func (c *CLI) renderStepOutcome(label string, status orchestrator.StepStatus, data any) {
	if status == orchestrator.StatusError {
		ui.Error.Printf("    %s failed\n", label)
		return
	}
	ui.Success.Printf("    %s done\n", label)
	if data != nil && c.config.ShowExecutedSQL {
		if formatted, err := ui.FormatJSON(data); err == nil {
			ui.Muted.Println("    " + formatted)
		}
	}
}

func (c *CLI) renderResult(final *orchestrator.AggregateResult) {
	if final == nil {
		return
	}

	fmt.Println()
	if final.OK {
		ui.Success.Println("Result:")
	} else {
		ui.Warning.Println("Result (incomplete):")
	}
	fmt.Println(c.formatter.FormatContent(final.Summary, c.config.EnableColors))

	if c.config.ShowExecutedSQL && len(final.ExecutedSQL) > 0 {
		fmt.Println()
		ui.Muted.Println("Executed SQL:")
		for _, sql := range final.ExecutedSQL {
			fmt.Println("  " + ui.FormatSQLQuery(sql))
		}
	}
}
