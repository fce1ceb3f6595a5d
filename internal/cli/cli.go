// Package cli provides the interactive command-line front-end to the
// orchestrator: a readline REPL with command shortcuts, a huh-based menu
// for connection management, and streaming rendering of StreamEvents.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/koopa0/nlqagent/internal/cli/ui"
	"github.com/koopa0/nlqagent/internal/config"
	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/orchestrator"
)

// CLI is the interactive REPL driving the orchestrator.
type CLI struct {
	config       config.CLIConfig
	orchestrator *orchestrator.Orchestrator
	connections  *connection.Manager
	registry     *handler.Registry
	logger       *slog.Logger
	prompt       *ui.Prompt
	colorizer    *ui.Colorizer
	formatter    *ui.Formatter
	version      string
	activeConn   string
}

// New creates a new CLI bound to orch, connections, and registry (used to
// drive the dynamic connection-setup wizard).
func New(cfg config.CLIConfig, orch *orchestrator.Orchestrator, connections *connection.Manager, registry *handler.Registry, logger *slog.Logger) (*CLI, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if connections == nil {
		return nil, fmt.Errorf("connections manager is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("handler registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	promptConfig := &ui.PromptConfig{
		Prompt:       cfg.PromptTemplate,
		HistoryFile:  cfg.HistoryFile,
		MaxHistory:   cfg.MaxHistorySize,
		AutoComplete: createAutoCompleter(),
		PromptColor:  ui.PromptSymbol,
		InputColor:   ui.UserInput,
	}

	prompt, err := ui.NewPrompt(promptConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	return &CLI{
		config:       cfg,
		orchestrator: orch,
		connections:  connections,
		registry:     registry,
		logger:       logger,
		prompt:       prompt,
		colorizer:    ui.NewColorizer(cfg.Theme),
		formatter:    ui.NewFormatter(),
		version:      GetVersion(),
	}, nil
}

// Run starts the interactive CLI session.
func (c *CLI) Run(ctx context.Context) error {
	c.showWelcome()

	ui.Info.Println("Type 'help' for available commands, 'menu' for the connection menu, 'exit' to quit")
	fmt.Println()

	for {
		line, err := c.prompt.ReadLine()
		if err != nil {
			if err == readline.ErrInterrupt {
				if ui.Confirm("Do you want to exit?", false) {
					break
				}
				continue
			} else if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if line == "" {
			continue
		}

		if c.handleCommand(ctx, line) {
			continue
		}

		c.processQuery(ctx, line)
	}

	c.showGoodbye()
	return nil
}

func (c *CLI) showWelcome() {
	if c.config.EnableColors {
		fmt.Print("\033[H\033[2J")
	}
	fmt.Println(ui.ColoredLogo())
	fmt.Println(ui.WelcomeMessage(c.version))
	fmt.Println(ui.Divider())
	fmt.Println()
}

func (c *CLI) showGoodbye() {
	fmt.Println()
	fmt.Println(ui.Divider())
	ui.Success.Println("Thank you for using nlqagent!")
	ui.Muted.Println("Goodbye!")
}

// handleCommand handles special CLI commands; it returns true if input was
// consumed as a command rather than passed to the orchestrator.
func (c *CLI) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "help", "?":
		c.showHelp()
		return true

	case "exit", "quit", "bye":
		c.prompt.Close()
		c.showGoodbye()
		os.Exit(0)

	case "clear", "cls":
		fmt.Print("\033[H\033[2J")
		return true

	case "status":
		c.showStatus(ctx)
		return true

	case "connections", "conns":
		c.showConnections()
		return true

	case "use":
		if len(args) == 0 {
			ui.Warning.Println("Usage: use <connection-id>")
			return true
		}
		c.useConnection(args[0])
		return true

	case "schema":
		c.showSchema(ctx, args)
		return true

	case "menu":
		if err := c.showMainMenu(ctx); err != nil {
			ui.Error.Printf("menu error: %v\n", err)
		}
		return true

	case "workflow", "guide":
		c.showWorkflowGuide()
		return true

	case "theme":
		if len(args) > 0 {
			c.setTheme(args[0])
		} else {
			ui.Warning.Println("Usage: theme <dark|light>")
		}
		return true
	}

	return false
}

// processQuery drives the orchestrator with a natural-language utterance
// and streams the resulting StreamEvents to the terminal.
func (c *CLI) processQuery(ctx context.Context, query string) {
	fmt.Println()
	ui.Header.Println("nlqagent:")
	fmt.Println(ui.Divider())

	events := c.orchestrator.Run(ctx, query, c.activeConn)
	c.renderStream(events)
	fmt.Println()
}

func (c *CLI) showHelp() {
	fmt.Println()
	ui.Header.Println("Available Commands:")
	fmt.Println(ui.Divider())

	commands := []struct{ cmd, desc string }{
		{"help, ?", "Show this help message"},
		{"menu", "Show the connection management menu"},
		{"workflow, guide", "Show workflow guides"},
		{"exit, quit", "Exit nlqagent"},
		{"clear, cls", "Clear the screen"},
		{"status", "Show orchestrator and connection status"},
		{"connections, conns", "List configured connections"},
		{"use <id>", "Set the active connection for queries"},
		{"schema [id]", "Show the schema of a connection (active if omitted)"},
		{"theme <dark|light>", "Change color theme"},
	}

	for _, cmd := range commands {
		ui.Label.Printf("  %-20s", cmd.cmd)
		ui.Muted.Println(cmd.desc)
	}

	fmt.Println()
	ui.Info.Println("Anything else you type is sent to the orchestrator as a question.")
	fmt.Println()
}

func (c *CLI) showStatus(ctx context.Context) {
	fmt.Println()
	ui.Header.Println("System Status:")
	fmt.Println(ui.Divider())

	health := c.connections.Health(ctx)
	data := make(map[string]string, len(health)+1)
	data["Active connection"] = c.activeConn
	if data["Active connection"] == "" {
		data["Active connection"] = "(none)"
	}
	for id, result := range health {
		status := "connected"
		if !result.Success {
			status = "error: " + result.Error
		}
		data["Connection "+id] = status
	}

	ui.RenderKeyValueTable("", data)
	fmt.Println()
}

func (c *CLI) setTheme(theme string) {
	switch theme {
	case "dark", "light":
		c.colorizer.SetTheme(theme)
		ui.Success.Printf("Switched to %s theme\n", theme)
	default:
		ui.Error.Printf("Unknown theme: %s\n", theme)
	}
}

func createAutoCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("clear"),
		readline.PcItem("status"),
		readline.PcItem("connections"),
		readline.PcItem("use"),
		readline.PcItem("schema"),
		readline.PcItem("menu"),
		readline.PcItem("workflow"),
		readline.PcItem("theme",
			readline.PcItem("dark"),
			readline.PcItem("light"),
		),
	)
}

// Close closes the CLI's underlying prompt.
func (c *CLI) Close() error {
	if c.prompt != nil {
		return c.prompt.Close()
	}
	return nil
}
