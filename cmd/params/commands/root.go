// Package commands implements the params CLI.
package commands

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/internal/hydrate"
	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/zlog"
)

// Version is set at build time.
var Version = "0.1.0"

type app struct {
	file        string
	logLevel    string
	printLogs   bool
	showChanges bool
}

// NewRootCmd builds the command tree. Each call returns independent flag
// state.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "params",
		Short: "Read and edit a params document",
		Long: `params edits a JSON params document addressed with dot paths.

Examples:
  params -f user.json set notifications.email true
  params -f user.json set theme '{"mode":"dark"}' --merge
  params -f user.json get notifications.email
  params -f user.json unset "theme, locale"
  params -f user.json dump --yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "params.json", "Document file")
	root.PersistentFlags().BoolVar(&a.printLogs, "print-logs", false, "Print logs to stderr")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	root.PersistentFlags().BoolVar(&a.showChanges, "changes", false, "Print recorded changes to stderr")

	root.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.addCmd(),
		a.unsetCmd(),
		a.dumpCmd(),
		a.evalCmd(),
		a.patchCmd(),
		a.queryCmd(),
		a.describeCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) open(cmd *cobra.Command, extra ...params.Option) (*params.Store, error) {
	var logger params.Logger
	if a.printLogs {
		logger = zlog.Wrap(zlog.New(zlog.Config{
			Level:  zlog.ParseLevel(a.logLevel),
			Output: cmd.ErrOrStderr(),
		}))
	}
	opts := []params.Option{
		params.WithAdapter(fileAdapter{path: a.file}),
		params.WithSource(a.file),
		params.WithLogger(logger),
		params.WithChangeJournal(),
	}
	store := params.New(append(opts, extra...)...)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// report prints the store's change journal as activity verbs.
func (a *app) report(cmd *cobra.Command, store *params.Store) {
	changes := store.Changes()
	if !a.showChanges {
		return
	}
	for _, change := range changes {
		event := activity.BuildParamsEvent(activity.ChangeInput{Op: string(change.Op), Path: change.Path, RecordID: a.file})
		line := event.Verb
		if change.Path != "" {
			line += " " + change.Path
		}
		fmt.Fprintln(cmd.ErrOrStderr(), line)
	}
}

// parseValue reads arg as JSON, falling back to a plain string. Numbers
// follow the document decoder so large integers stay exact.
func parseValue(arg string, asString bool) any {
	if asString {
		return arg
	}
	value, err := hydrate.NewDecoder().DecodeValue([]byte(arg))
	if err != nil {
		return arg
	}
	return value
}

func writeValue(w io.Writer, value any, asYAML bool) error {
	if asYAML {
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func mergeMode(merge, recursive bool) params.MergeMode {
	switch {
	case recursive:
		return params.MergeRecursive
	case merge:
		return params.Merge
	default:
		return params.Replace
	}
}
