package cli

import (
	"github.com/spf13/cobra"

	"github.com/atlekbai/querybind/internal/expr"
)

type predicateResult struct {
	Query     string `json:"query"`
	Predicate string `json:"predicate"`
	Matches   *bool  `json:"matches,omitempty"`
}

// NewPredicateCommand creates the predicate command.
func NewPredicateCommand(rootOpts *RootOptions) *cobra.Command {
	var record string

	cmd := &cobra.Command{
		Use:   "predicate <query>...",
		Short: "Print the predicate each query string binds to",
		Long: `Print the predicate each query string binds to.

With --record, also report whether the predicate holds for that JSON
document. Reserved listing parameters (order, limit, ...) are treated as
ordinary filters here.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredicate(cmd, rootOpts, record, args)
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "JSON object to evaluate the predicates against")

	return cmd
}

func runPredicate(cmd *cobra.Command, opts *RootOptions, record string, queries []string) error {
	var rec expr.Record
	if record != "" {
		if err := json.Unmarshal([]byte(record), &rec); err != nil {
			return WrapExitError(ExitCommandError, "invalid --record", err)
		}
	}

	svc, err := newService(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "setup failed", err)
	}

	results := make([]predicateResult, 0, len(queries))
	for _, q := range queries {
		p, err := svc.Predicate(opts.Object, q)
		if err != nil {
			return WrapExitError(ExitFailure, "query "+q, err)
		}
		r := predicateResult{Query: q, Predicate: p.String()}
		if rec != nil {
			m := expr.Eval(p, rec)
			r.Matches = &m
		}
		results = append(results, r)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.isJSON() {
		return out.JSON(results)
	}
	for _, r := range results {
		line := r.Query + "\t" + r.Predicate
		if r.Matches != nil {
			if *r.Matches {
				line += "\tmatch"
			} else {
				line += "\tno match"
			}
		}
		if err := out.Textf("%s", line); err != nil {
			return err
		}
	}
	return nil
}
