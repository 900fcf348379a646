package cli

import (
	"github.com/spf13/cobra"
)

type sqlResult struct {
	Query     string `json:"query"`
	Predicate string `json:"predicate"`
	List      string `json:"list_sql"`
	ListArgs  []any  `json:"list_args"`
	Count     string `json:"count_sql"`
	CountArgs []any  `json:"count_args"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <query>...",
		Short: "Render the list and count statements for each query string",
		Long: `Render the PostgreSQL list and count statements for each query string.

The reserved parameters select, order, limit and cursor shape the listing;
every other parameter is bound as a filter. Queries are planned concurrently.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, rootOpts, args)
		},
	}
	return cmd
}

func runSQL(cmd *cobra.Command, opts *RootOptions, queries []string) error {
	svc, err := newService(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "setup failed", err)
	}

	plans, err := svc.PlanAll(cmd.Context(), opts.Object, queries)
	if err != nil {
		return WrapExitError(ExitFailure, "planning failed", err)
	}

	results := make([]sqlResult, len(plans))
	for i, p := range plans {
		results[i] = sqlResult{
			Query:     p.Query,
			Predicate: p.Predicate.String(),
			List:      p.ListSQL,
			ListArgs:  p.ListArgs,
			Count:     p.CountSQL,
			CountArgs: p.CountArgs,
		}
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.isJSON() {
		return out.JSON(results)
	}
	for i, r := range results {
		if i > 0 {
			if err := out.Textf(""); err != nil {
				return err
			}
		}
		if err := out.Textf("-- query: %s\n-- where: %s", r.Query, r.Predicate); err != nil {
			return err
		}
		if err := out.Textf("%s;\n-- args: %v", r.List, r.ListArgs); err != nil {
			return err
		}
		if err := out.Textf("%s;\n-- args: %v", r.Count, r.CountArgs); err != nil {
			return err
		}
	}
	return nil
}
