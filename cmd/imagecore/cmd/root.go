package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lumenraw/imagecore"
	"github.com/lumenraw/imagecore/logging"
	"github.com/spf13/cobra"
)

// NewRoot builds the imagecore command tree. Log output goes to stderr, or
// to a rotating file when --log-file is set.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var log_file io.Closer
	cmd := &cobra.Command{
		Use:           "imagecore",
		Short:         "composite AI patches onto photos and inspect color LUTs",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			pf := cmd.Flags()
			level_name, _ := pf.GetString("log-level")
			format, _ := pf.GetString("log-format")
			path, _ := pf.GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(level_name))); err != nil {
				return fmt.Errorf("invalid log level %q: %w", level_name, err)
			}
			var json bool
			switch format {
			case "text":
			case "json":
				json = true
			default:
				return fmt.Errorf("invalid log format %q, must be text or json", format)
			}
			var w io.Writer = cmd.ErrOrStderr()
			if path != "" {
				f := logging.RotatingFile(path, 10, 3)
				w, log_file = f, f
			}
			l := logging.New(w, json, level)
			slog.SetDefault(l)
			logging.SetLogger(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log_file != nil {
				log_file.Close()
				log_file = nil
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewCompositeCmd(ctx),
		NewLUTCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("log-file", "", "Write logs to this file, rotating it as it grows")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, sub := range cmd.Commands() {
		printCommandTree(w, sub, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "library version and git sha for this build",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", imagecore.Version, gitsha)
		},
	}
}
