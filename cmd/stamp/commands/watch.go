package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/watch"
)

// WatchCmd re-annotates a file on every save
var WatchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Annotate a file again every time it changes",
	Long: `Watch a file and print its annotation after every save.

All passes share one editing session: a placeholder marker left in the file
where a timestamp was keeps that timestamp, and can widen into a larger
expression around it.

Examples:
  stamp watch notes.md
  stamp watch notes.md --format markup -p t`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchDebounce int

func init() {
	addRenderFlags(WatchCmd, []display.Format{display.FormatTerminal, display.FormatJSON, display.FormatMarkup})
	WatchCmd.Flags().IntVar(&watchDebounce, "debounce", int(watch.DefaultDebounce.Milliseconds()), "Quiet period after a change, in milliseconds")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFromCommand(cmd, display.FormatTerminal, display.FormatJSON, display.FormatMarkup)
	if err != nil {
		return err
	}
	cfg, e, err := loadEngine()
	if err != nil {
		return err
	}
	opts, err := renderOptions(cmd, cfg)
	if err != nil {
		return err
	}

	w, err := watch.New(args[0], e, watch.WithDebounce(time.Duration(watchDebounce)*time.Millisecond))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var renderErr error
	err = w.Run(ctx, func(p watch.Pass) {
		if format == display.FormatTerminal {
			fmt.Fprint(out, pterm.DefaultSection.Sprintf("%s · pass %d", filepath.Base(p.Path), p.Number))
		}
		if err := display.Render(out, p.Result, format, opts); err != nil && renderErr == nil {
			renderErr = err
			stop()
		}
	})
	if err != nil {
		return err
	}
	return renderErr
}
