package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) setCmd() *cobra.Command {
	var merge, recursive, asString bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value at a dot path",
		Long: `Store a value at a dot path, creating intermediate objects.

The value is parsed as JSON when possible and stored as a string otherwise.
With --merge an object value is merged into the existing object; with
--recursive nested objects are merged as well.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := store.SetParam(args[0], parseValue(args[1], asString), mergeMode(merge, recursive)); err != nil {
				return err
			}
			a.report(cmd, store)
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge objects instead of replacing")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Merge nested objects (implies --merge)")
	cmd.Flags().BoolVar(&asString, "string", false, "Store the value as a string without JSON parsing")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "add <key> <value>",
		Short: "Append a value to the list at a dot path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := store.AddParam(args[0], parseValue(args[1], asString)); err != nil {
				return err
			}
			a.report(cmd, store)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "Append the value as a string without JSON parsing")
	return cmd
}

func (a *app) unsetCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "unset <keys>",
		Short: "Remove top level keys",
		Long: `Remove top level keys given as a comma separated list such as "a, b".
Dots are not interpreted. --all clears the document.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			if all {
				err = store.UnsetParams()
			} else {
				err = store.UnsetParamList(args[0])
			}
			if err != nil {
				return err
			}
			a.report(cmd, store)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every key")
	return cmd
}

func (a *app) patchCmd() *cobra.Command {
	var mergePatch bool
	cmd := &cobra.Command{
		Use:   "patch <file|->",
		Short: "Apply a JSON Patch (RFC 6902) or JSON Merge Patch (RFC 7386)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			store, err := a.open(cmd)
			if err != nil {
				return err
			}
			if mergePatch {
				err = store.ApplyMergePatch(patch)
			} else {
				err = store.ApplyPatch(patch)
			}
			if err != nil {
				return err
			}
			a.report(cmd, store)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mergePatch, "merge-patch", false, "Treat the input as a JSON Merge Patch")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}
	return data, nil
}
