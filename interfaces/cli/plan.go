package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/toolplan/application"
	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/pack/travel"
)

// planOptions holds options for the plan command.
type planOptions struct {
	configPath    string
	goal          string
	offline       bool
	jsonOutput    bool
	report        bool
	outputPath    string
	execute       bool
	maxExpansions int
	topK          int
	timeout       time.Duration
}

func (a *App) newPlanCmd() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan [goal]",
		Short: "Plan a travel booking for a goal",
		Long: `Search for a sequence of travel booking tools that reaches a confirmed
booking for the given goal.

Examples:
  # Plan with the deterministic fallback only
  toolplan plan --offline "Book a trip from Paris to Rome by flight"

  # Plan with a configured language model and print the step report
  toolplan plan -c toolplan.yaml --report "I need to get from Chicago to Denver"

  # Save the plan for a later replay
  toolplan plan --offline -o plan.json "Go from Boston to New York"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.goal = args[0]
			}
			return a.runPlan(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Plan with the deterministic fallback only")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.report, "report", false, "Include the per-expansion step report")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the plan records to a file")
	cmd.Flags().BoolVar(&opts.execute, "execute", false, "Replay the plan after planning")
	cmd.Flags().IntVar(&opts.maxExpansions, "max-expansions", 0, "Expansion budget (overrides config)")
	cmd.Flags().IntVar(&opts.topK, "top-k", 0, "Tools considered per expansion (overrides config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Search timeout (overrides config)")

	return cmd
}

// planOutput is the JSON form of a plan command result.
type planOutput struct {
	SearchID   string                     `json:"search_id"`
	Goal       string                     `json:"goal"`
	Status     string                     `json:"status"`
	Plan       []plan.Record              `json:"plan"`
	Final      state.Fields               `json:"final"`
	Cost       float64                    `json:"cost,omitempty"`
	Expansions int                        `json:"expansions"`
	Duration   string                     `json:"duration"`
	Error      string                     `json:"error,omitempty"`
	Report     []event.StepReport         `json:"report,omitempty"`
	Execution  []application.ExecutedStep `json:"execution,omitempty"`
}

func (a *App) runPlan(ctx context.Context, opts *planOptions) (err error) {
	rt, err := a.newRuntime(opts.configPath, opts.offline)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()

	if opts.maxExpansions > 0 {
		rt.config.Search.MaxExpansions = opts.maxExpansions
	}
	if opts.topK > 0 {
		rt.config.Search.TopK = opts.topK
	}
	if opts.timeout > 0 {
		rt.config.Search.Timeout = domainconfig.Duration(opts.timeout)
	}

	goal := opts.goal
	if goal == "" {
		goal = rt.config.Goal
	}
	if goal == "" {
		return fmt.Errorf("no goal specified (use argument or set goal in config)")
	}

	out := planOutput{Goal: goal}
	result, searchErr := rt.planner().Search(ctx, travel.Booking{}, goal)
	if searchErr != nil {
		out.fromError(searchErr)
		out.SearchID = firstSearch(rt)
	} else {
		out.Status = string(search.PhaseSucceeded)
		out.SearchID = result.SearchID
		out.Plan = result.Plan.Records()
		out.Final = result.Final.Fields()
		out.Cost = result.Cost
		out.Expansions = result.Expansions
		out.Duration = result.Duration.String()
	}

	if searchErr == nil && opts.execute {
		x, err := rt.executor().ReplayGuided(event.WithSearchID(ctx, result.SearchID), result.Plan, travel.Booking{}, goal)
		if x != nil {
			out.Execution = x.Steps
		}
		if err != nil {
			return fmt.Errorf("execute plan: %w", err)
		}
	}

	if opts.report {
		if err := rt.publisher.Flush(ctx); err != nil {
			return fmt.Errorf("flush events: %w", err)
		}
		events, err := rt.log.Events(ctx, out.SearchID)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		if out.Report, err = event.BuildReport(events); err != nil {
			return fmt.Errorf("build report: %w", err)
		}
	}

	if searchErr == nil && opts.outputPath != "" {
		if err := writeRecords(opts.outputPath, out.Plan); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		if err := a.writeJSON(out); err != nil {
			return err
		}
	} else {
		a.printPlan(out)
	}
	return searchErr
}

func (o *planOutput) fromError(err error) {
	o.Error = err.Error()
	o.Status = string(search.PhaseFailed)

	var failed *search.FailedError[travel.Booking]
	var timedOut *search.TimedOutError[travel.Booking]
	switch {
	case errors.As(err, &timedOut):
		o.Status = string(search.PhaseTimedOut)
		o.Plan = timedOut.Partial.Records()
		o.Final = timedOut.State.Fields()
		o.Expansions = timedOut.Expansions
		o.Duration = timedOut.Elapsed.String()
	case errors.As(err, &failed):
		o.Plan = failed.Partial.Records()
		o.Final = failed.State.Fields()
		o.Expansions = failed.Expansions
	}
}

// firstSearch returns the ID of the only search the runtime has run.
func firstSearch(rt *runtime) string {
	_ = rt.publisher.Flush(context.Background())
	if ids := rt.log.Searches(); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func (a *App) printPlan(out planOutput) {
	_, _ = fmt.Fprintf(a.stdout, "Search %s\n", out.Status)
	_, _ = fmt.Fprintf(a.stdout, "  Search ID: %s\n", out.SearchID)
	_, _ = fmt.Fprintf(a.stdout, "  Goal: %s\n", out.Goal)
	_, _ = fmt.Fprintf(a.stdout, "  Expansions: %d\n", out.Expansions)
	if out.Duration != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Duration: %s\n", out.Duration)
	}
	if out.Error != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Error: %s\n", out.Error)
	}

	label := "Plan"
	if out.Error != "" {
		label = "Partial plan"
	}
	_, _ = fmt.Fprintf(a.stdout, "\n%s (%d steps", label, len(out.Plan))
	if out.Error == "" {
		_, _ = fmt.Fprintf(a.stdout, ", cost %.2f", out.Cost)
	}
	_, _ = fmt.Fprintf(a.stdout, "):\n")
	for _, r := range out.Plan {
		_, _ = fmt.Fprintf(a.stdout, "  %d. %s%s\n", r.Step+1, r.Tool, r.Args)
	}
	_, _ = fmt.Fprintf(a.stdout, "\nFinal state: {%s}\n", out.Final)

	if len(out.Execution) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "\nExecution:\n")
		a.printSteps(out.Execution)
	}

	if len(out.Report) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "\nStep report:\n")
		for _, r := range out.Report {
			_, _ = fmt.Fprintf(a.stdout, "  expansion %d (depth %d)", r.Expansion, r.Step)
			switch {
			case r.Chosen != "":
				_, _ = fmt.Fprintf(a.stdout, ": chose %s%s p=%.2f f=%.3f\n", r.Chosen, r.ChosenArgs, r.Probability, r.F)
			case r.Discarded != "":
				_, _ = fmt.Fprintf(a.stdout, ": discarded (%s)\n", r.Discarded)
			default:
				_, _ = fmt.Fprintln(a.stdout)
			}
			for _, t := range r.Tools {
				_, _ = fmt.Fprintf(a.stdout, "    %s prior=%.2f\n", t.Name, t.Prior)
				for _, c := range t.Candidates {
					if c.Viable {
						_, _ = fmt.Fprintf(a.stdout, "      %s p=%.2f f=%.3f\n", c.Args, c.Probability, c.F)
					} else {
						_, _ = fmt.Fprintf(a.stdout, "      %s not applicable\n", c.Args)
					}
				}
			}
		}
	}
}

func (a *App) printSteps(steps []application.ExecutedStep) {
	for _, s := range steps {
		_, _ = fmt.Fprintf(a.stdout, "  %d. %s%s", s.Index+1, s.Tool, s.Args)
		if s.Thought != "" {
			_, _ = fmt.Fprintf(a.stdout, " (%s)", s.Thought)
		}
		if s.Error != "" {
			_, _ = fmt.Fprintf(a.stdout, " FAILED: %s\n", s.Error)
			continue
		}
		_, _ = fmt.Fprintln(a.stdout)
		for _, name := range s.Observation.Names() {
			c := s.Observation[name]
			_, _ = fmt.Fprintf(a.stdout, "       %s: %v -> %v\n", name, c.Before, c.After)
		}
	}
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRecords(path string, records []plan.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
