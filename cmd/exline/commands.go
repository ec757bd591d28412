package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/exline/internal/app"
	"github.com/dshills/exline/internal/logging"
)

// rootFlags holds the flags shared by every command.
type rootFlags struct {
	configPath  string
	logLevel    string
	logFile     string
	historyFile string
	delegate    bool
	commands    []string
}

func (f *rootFlags) options(cmd *cobra.Command, file string) app.Options {
	return app.Options{
		ConfigPath:  f.configPath,
		File:        file,
		LogLevel:    f.logLevel,
		LogFile:     f.logFile,
		HistoryFile: f.historyFile,
		Delegate:    f.delegate,
		Watch:       len(f.commands) == 0,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "exline [file]",
		Short: "Edit a file with Vim Ex commands",
		Long: `exline reads Ex command lines such as :%s/foo/bar/g, :10,20d or :w and
applies them to a file. Lines come from -c flags, or interactively from the
terminal when none are given.`,
		Args:    cobra.MaximumNArgs(1),
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logLevel == "" {
				return nil
			}
			level := logging.ParseLogLevel(flags.logLevel)
			if strings.EqualFold(level.String(), flags.logLevel) {
				return nil
			}
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", flags.logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runEditor(cmd, flags, file)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "Write logs to a rotating file")
	pf.StringVar(&flags.historyFile, "history-file", "", "Command history location")
	root.Flags().BoolVar(&flags.delegate, "delegate", false, "Hand capable commands to the Lua interpreter")
	root.Flags().StringArrayVarP(&flags.commands, "command", "c", nil, "Run an Ex command (repeatable)")

	root.AddCommand(newHistoryCommand(flags))
	return root
}

func runEditor(cmd *cobra.Command, flags *rootFlags, file string) error {
	ctx := cmd.Context()
	application, err := app.New(ctx, flags.options(cmd, file))
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}()

	application.Logger().WithComponent("main").Debug("exline %s starting", version)

	if len(flags.commands) > 0 {
		err = application.Exec(ctx, flags.commands)
	} else {
		err = application.Interactive(ctx)
	}
	if errors.Is(err, app.ErrQuit) {
		return nil
	}
	return err
}

func newHistoryCommand(flags *rootFlags) *cobra.Command {
	var (
		limit int
		clear bool
		pick  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List command history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, "")
			opts.Watch = false
			application, err := app.New(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer application.Close()

			switch {
			case clear:
				return application.ClearHistory(cmd.Context())
			case pick:
				if choice, ok := application.PickHistory(cmd.Context()); ok {
					fmt.Fprintln(cmd.OutOrStdout(), choice)
				}
				return nil
			}
			printHistory(cmd.OutOrStdout(), application.Engine().HistoryEntries(), limit)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max entries to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete all history")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose an entry and print it")
	return cmd
}

func printHistory(w io.Writer, entries []string, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded yet.")
		return
	}
	n := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && n == limit {
			break
		}
		fmt.Fprintf(w, "%5d  %s\n", i+1, entries[i])
		n++
	}
}
