package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"system-step/api/services/system"
)

// parseSets turns repeated "name=value" flags into parameter values.
func parseSets(sets []string) (system.Values, error) {
	values := make(system.Values, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected name=value", s)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

func newDescribeCmd() *cobra.Command {
	var (
		sets []string
		step int
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print what the step will do with the given parameters",
		Example: `  system-step describe --set "system operation=create a new, empty system" \
    --set "system name=water" --set system=new`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			s := system.New()
			if err := s.Parameters.Update(values); err != nil {
				return err
			}
			text, err := s.Description(step)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter value as name=value (repeatable)")
	cmd.Flags().IntVar(&step, "step", 1, "step number used in the header")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the dialog rows shown for the given parameters as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(system.VisibleRows(values))
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter value as name=value (repeatable)")
	return cmd
}
