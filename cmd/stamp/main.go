package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/cmd/stamp/commands"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stamp",
	Short: "stamp - find and resolve timestamps in free text",
	Long: `stamp - find and resolve timestamps in free text.

stamp scans text for timestamps such as "13:30", "21/03" or
"2024-03-21 09:00", grows each match into the largest expression around it
("at 13:30 on 21/03"), and resolves it to an instant.

Available commands:
  annotate - Annotate text, files or stdin
  watch    - Re-annotate a file on every save
  serve    - Serve annotation over HTTP and websockets
  mcp      - Serve timestamp tools to MCP clients
  catalog  - Inspect and check pattern catalogs
  am       - Manage configuration ("I am")

Examples:
  stamp annotate "see you at 13:30 on 21/03"
  stamp watch notes.md
  stamp serve
  stamp am show`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")

		// Config errors are reported by the command itself
		jsonLogs, theme := false, ""
		if cfg, err := commands.LoadConfig(); err == nil {
			jsonLogs, theme = cfg.Log.JSON, cfg.Log.Theme
		}
		if theme != "" {
			logger.SetTheme(theme)
		}
		if err := logger.InitializeWithLevel(jsonLogs, logger.VerbosityToLevel(verbosity)); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "",
		fmt.Sprintf("Use this config file instead of the %s cascade", am.ConfigFileName))

	rootCmd.AddCommand(commands.AnnotateCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.McpCmd)
	rootCmd.AddCommand(commands.CatalogCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
