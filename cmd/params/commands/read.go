package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	params "github.com/goliatone/go-params"
)

func (a *app) getCmd() *cobra.Command {
	var (
		def    string
		asYAML bool
	)
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value at a dot path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			var fallback any
			if cmd.Flags().Changed("default") {
				fallback = parseValue(def, false)
			}
			value := store.GetParam(args[0], missing{})
			if _, ok := value.(missing); ok {
				if !cmd.Flags().Changed("default") {
					return fmt.Errorf("params: %q not found in %s", args[0], a.file)
				}
				value = fallback
			}
			return writeValue(cmd.OutOrStdout(), value, asYAML)
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "Value printed when the key is missing")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	return cmd
}

// missing is a sentinel default distinguishing absent keys from null ones.
type missing struct{}

func (a *app) dumpCmd() *cobra.Command {
	var pretty, asYAML bool
	var indent int
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole document",
		Long: `Print the whole document. An empty document prints nothing, matching
the absent value stored for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []params.Option
			if indent > 0 {
				extra = append(extra, params.WithIndent(strings.Repeat(" ", indent)))
			}
			store, err := a.open(cmd, extra...)
			if err != nil {
				return err
			}
			if asYAML {
				if len(store.GetParams()) == 0 {
					return nil
				}
				return writeValue(cmd.OutOrStdout(), store.GetParams(), true)
			}
			raw, ok, err := store.JSONString(pretty)
			if err != nil || !ok {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
			return err
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	cmd.Flags().IntVar(&indent, "indent", 0, "Spaces per indent level with --pretty (default 4)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "query <path>",
		Short: "Resolve a gjson path such as servers.#.host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			value, ok := store.Query(args[0])
			if !ok {
				return fmt.Errorf("params: no match for %q", args[0])
			}
			return writeValue(cmd.OutOrStdout(), value, asYAML)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List every leaf path with its type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			for _, field := range store.Describe() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", field.Path, field.Type)
			}
			return nil
		},
	}
}

func (a *app) evalCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the document",
		Long: `Evaluate an expression against the document. Top level keys are bound
as variables and the whole tree is available as params.

Engines: expr (default), cel, js (requires the js_eval build tag).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator, err := evaluatorFor(engine)
			if err != nil {
				return err
			}
			store, err := a.open(cmd, params.WithEvaluator(evaluator))
			if err != nil {
				return err
			}
			value, err := store.Evaluate(args[0])
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), value, false)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "expr", "Expression engine (expr|cel|js)")
	return cmd
}

func evaluatorFor(engine string) (params.Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "expr":
		return params.NewExprEvaluator(), nil
	case "cel":
		return params.NewCELEvaluator(), nil
	case "js":
		if evaluator := params.NewJSEvaluator(); evaluator != nil {
			return evaluator, nil
		}
		return nil, fmt.Errorf("params: js engine not available, rebuild with -tags js_eval")
	default:
		return nil, fmt.Errorf("params: unknown engine %q", engine)
	}
}
