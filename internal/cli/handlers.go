package cli

import (
	"context"
	"fmt"

	"github.com/koopa0/nlqagent/internal/cli/ui"
	"github.com/koopa0/nlqagent/internal/connection"
)

// showConnections lists every configured connection and its state.
func (c *CLI) showConnections() {
	fmt.Println()
	ui.Header.Println("Connections:")
	fmt.Println(ui.Divider())

	conns := c.connections.List()
	if len(conns) == 0 {
		ui.Warning.Println("No connections configured. Use 'menu' to add one.")
		return
	}

	headers := []string{"ID", "Name", "Kind", "State", "Active"}
	var rows [][]string
	for _, conn := range conns {
		active := ""
		if conn.Active {
			active = c.colorizer.Badge("active", "success")
		}
		rows = append(rows, []string{
			conn.Config.ID,
			conn.Config.Name,
			string(conn.Config.Kind),
			c.colorizer.Status(string(conn.State)),
			active,
		})
	}

	opts := ui.DefaultTableOptions()
	opts.Headers = headers
	opts.Rows = rows
	ui.RenderTable(opts)
	fmt.Println()
}

// useConnection sets id as the active connection for subsequent queries,
// activating it first if it exists but isn't yet connected.
func (c *CLI) useConnection(id string) {
	conn, ok := c.connections.Get(id)
	if !ok {
		ui.Error.Printf("no such connection: %s\n", id)
		return
	}

	if conn.State != connection.StateConnected {
		if err := c.connections.Activate(context.Background(), id); err != nil {
			ui.Error.Printf("failed to activate %s: %v\n", id, err)
			return
		}
	}

	c.activeConn = id
	ui.Success.Printf("active connection set to %s (%s)\n", id, conn.Config.Kind)
}

// showSchema displays the schema of the named connection, or the active
// one if no id is given.
func (c *CLI) showSchema(ctx context.Context, args []string) {
	id := c.activeConn
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		ui.Warning.Println("no active connection; use 'use <id>' or 'schema <id>'")
		return
	}

	snapshot, err := c.connections.Schema(ctx, id, true)
	if err != nil {
		ui.Error.Printf("failed to fetch schema: %v\n", err)
		return
	}

	fmt.Println()
	ui.Header.Printf("Schema for %s:\n", id)
	fmt.Println(ui.Divider())

	for _, table := range snapshot.Tables {
		ui.SQLTable.Printf("  %s", table.Name)
		if table.RowCountEstimate > 0 {
			ui.Muted.Printf(" (~%d rows)\n", table.RowCountEstimate)
		} else {
			fmt.Println()
		}
		for _, col := range table.Columns {
			marker := ""
			if col.PrimaryKey {
				marker = " [pk]"
			}
			ui.Muted.Printf("    %-24s %s%s\n", col.Name, col.TypeString, marker)
		}
	}
	fmt.Println()
}
