package cli

import (
	"fmt"

	"github.com/koopa0/nlqagent/internal/cli/ui"
)

// showWorkflowGuide displays common step-by-step workflows for getting
// value out of nlqagent.
func (c *CLI) showWorkflowGuide() {
	fmt.Println()
	ui.Header.Println("Workflow Guide")
	fmt.Println(ui.Divider())

	workflows := []struct {
		title string
		steps []string
	}{
		{
			title: "Connect to a data source",
			steps: []string{
				"1. Run 'menu' and choose 'Add a connection'",
				"2. Pick a backend kind and fill in its fields",
				"3. nlqagent tests the connection before saving it",
				"4. Use 'use <id>' or the menu's 'Activate' option to make it active",
			},
		},
		{
			title: "Ask a question",
			steps: []string{
				"1. Make sure a connection is active ('status' shows it)",
				"2. Type your question in plain language, or use 'menu' → 'Ask a question'",
				"3. Watch the plan, tool calls, and executed SQL stream in",
				"4. Review the final summary and any returned chart",
			},
		},
		{
			title: "Inspect a schema before asking",
			steps: []string{
				"1. Run 'schema' for the active connection, or 'schema <id>' for another",
				"2. Note table and column names so your question can reference them",
				"3. Ask your question once you know the shape of the data",
			},
		},
		{
			title: "Work with multiple connections",
			steps: []string{
				"1. Run 'connections' to list everything configured",
				"2. Switch the active one with 'use <id>'",
				"3. Remove one you no longer need from 'menu' → 'Remove a connection'",
			},
		},
	}

	for _, workflow := range workflows {
		ui.SubHeader.Println(workflow.title)
		for _, step := range workflow.steps {
			ui.Muted.Printf("  %s\n", step)
		}
		fmt.Println()
	}

	ui.Info.Println("Tip: you can always skip the menu and type a question directly.")
	fmt.Println()
}
