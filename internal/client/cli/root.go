package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/buildinfo"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/spf13/cobra"
)

// commandApp is what the cobra commands need from App.
type commandApp interface {
	Run(ctx context.Context)
	RunCommand(ctx context.Context, name string, args []string) error
	Close(ctx context.Context)
}

// newAppFn is a test seam for NewApp.
var newAppFn = func(ctx context.Context, cfg *config.Config) (commandApp, error) {
	return NewApp(ctx, cfg)
}

// RunCommand runs one command outside the REPL with the restored session.
func (a *App) RunCommand(ctx context.Context, name string, args []string) error {
	a.restore(ctx)
	if !a.isLoggedIn() {
		return fmt.Errorf("%w: not logged in, start daybook and use 'login' first", common.ErrorUnauthorized)
	}

	switch name {
	case "import":
		return a.Import(ctx, args)
	case "export":
		return a.Export(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func runRepl(cmd *cobra.Command, cfg *config.Config) error {
	app, err := newAppFn(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	app.Run(cmd.Context())
	return nil
}

func runOnce(cmd *cobra.Command, cfg *config.Config, name string, args []string) error {
	app, err := newAppFn(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())
	return app.RunCommand(cmd.Context(), name, args)
}

// NewRootCmd builds the command tree. Without a subcommand the interactive
// REPL starts.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "daybook",
		Short:        "A journal with autosave and drafts shared across devices.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, cfg)
		},
	}

	addRepl(root, cfg)
	addImport(root, cfg)
	addExport(root, cfg)
	addVersion(root)
	return root
}

func addRepl(topLevel *cobra.Command, cfg *config.Config) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "Start the interactive shell (default).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, cfg)
		},
	})
}

func addImport(topLevel *cobra.Command, cfg *config.Config) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import entries from a CSV file with title, data and date columns.",
		Example: `
daybook import journal.csv
daybook -a 10.0.0.5:50051 import journal.csv
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, cfg, "import", args)
		},
	})
}

func addExport(topLevel *cobra.Command, cfg *config.Config) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "export [file.csv]",
		Short: "Export all entries to a CSV file.",
		Example: `
daybook export
daybook export backups/journal.csv
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, cfg, "export", args)
		},
	})
}

func addVersion(topLevel *cobra.Command) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	})
}

// Execute runs the command tree on args, which must already be stripped of
// the flags owned by the config loader.
func Execute(ctx context.Context, cfg *config.Config, args []string) error {
	root := NewRootCmd(cfg)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
