package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/mcpserver"
)

// McpCmd serves the MCP tools over stdio
var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve timestamp tools to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout.

Tools:
  annotate_timestamps  find and resolve timestamps in text
  format_timestamp     render one instant with a presentation code
  expand_timestamps    render every <t:unix:code> token in a text

Logs go to stderr so they never mix with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, e, err := loadEngine()
		if err != nil {
			return err
		}
		loc, err := geotime.LoadLocation(cfg.Resolver.Timezone)
		if err != nil {
			return err
		}
		return mcpserver.New(e, loc).Serve()
	},
}
