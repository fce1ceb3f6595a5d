package cli

import (
	"context"

	"github.com/charmbracelet/huh"

	"github.com/koopa0/nlqagent/internal/cli/ui"
)

// showMainMenu shows the connection-management menu using huh, mirroring
// the teacher's form-driven interactive mode.
func (c *CLI) showMainMenu(ctx context.Context) error {
	for {
		var choice string

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("What would you like to do?").
					Options(
						huh.NewOption("➕ Add a connection", "add"),
						huh.NewOption("📋 List connections", "list"),
						huh.NewOption("🔌 Activate a connection", "activate"),
						huh.NewOption("🗑️ Remove a connection", "remove"),
						huh.NewOption("📐 View a connection's schema", "schema"),
						huh.NewOption("❓ Ask a question", "ask"),
						huh.NewOption("❌ Back", "exit"),
					).
					Value(&choice),
			),
		)

		if err := form.Run(); err != nil {
			return err
		}

		switch choice {
		case "add":
			if err := c.addConnectionWizard(ctx); err != nil {
				ui.Error.Printf("failed to add connection: %v\n", err)
			}
		case "list":
			c.showConnections()
		case "activate":
			if err := c.activateConnectionMenu(ctx); err != nil {
				ui.Error.Printf("activation failed: %v\n", err)
			}
		case "remove":
			if err := c.removeConnectionMenu(ctx); err != nil {
				ui.Error.Printf("removal failed: %v\n", err)
			}
		case "schema":
			if err := c.schemaMenu(ctx); err != nil {
				ui.Error.Printf("schema lookup failed: %v\n", err)
			}
		case "ask":
			c.askQuestionForm(ctx)
		case "exit":
			return nil
		}
	}
}

// selectConnectionID prompts the user to pick one of the configured
// connections by id; returns "" if there are none.
func (c *CLI) selectConnectionID(title string) (string, error) {
	conns := c.connections.List()
	if len(conns) == 0 {
		ui.Warning.Println("no connections configured yet")
		return "", nil
	}

	options := make([]huh.Option[string], 0, len(conns))
	for _, conn := range conns {
		label := conn.Config.ID + " (" + conn.Config.Name + ", " + string(conn.Config.Kind) + ")"
		options = append(options, huh.NewOption(label, conn.Config.ID))
	}

	var id string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(title).Options(options...).Value(&id),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return id, nil
}

func (c *CLI) activateConnectionMenu(ctx context.Context) error {
	id, err := c.selectConnectionID("Activate which connection?")
	if err != nil || id == "" {
		return err
	}
	if err := c.connections.Activate(ctx, id); err != nil {
		return err
	}
	c.activeConn = id
	ui.Success.Printf("connection %s activated\n", id)
	return nil
}

func (c *CLI) removeConnectionMenu(ctx context.Context) error {
	id, err := c.selectConnectionID("Remove which connection?")
	if err != nil || id == "" {
		return err
	}
	if !ui.Confirm("Really remove "+id+"?", false) {
		return nil
	}
	if err := c.connections.Remove(ctx, id); err != nil {
		return err
	}
	if c.activeConn == id {
		c.activeConn = ""
	}
	ui.Success.Printf("connection %s removed\n", id)
	return nil
}

func (c *CLI) schemaMenu(ctx context.Context) error {
	id, err := c.selectConnectionID("View schema for which connection?")
	if err != nil || id == "" {
		return err
	}
	c.showSchema(ctx, []string{id})
	return nil
}

func (c *CLI) askQuestionForm(ctx context.Context) {
	var question string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What do you want to ask?").
				Lines(2).
				Value(&question),
		),
	)
	if err := form.Run(); err != nil {
		ui.Error.Printf("form error: %v\n", err)
		return
	}
	if question == "" {
		return
	}
	c.processQuery(ctx, question)
}
