package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/pack/travel"
)

// replayOptions holds options for the replay command.
type replayOptions struct {
	configPath string
	planPath   string
	goal       string
	guided     bool
	jsonOutput bool
}

func (a *App) newReplayCmd() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a stored plan against a fresh booking",
		Long: `Resolve a plan record list against the travel tools and apply it step by
step, printing the state changes of every step. Replay stops at the first
step whose precondition does not hold.

Examples:
  # Replay a plan written by "toolplan plan -o"
  toolplan replay --plan plan.json

  # Let the configured language model review every step
  toolplan replay -c toolplan.yaml --plan plan.json --guided --goal "from Paris to Rome"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReplay(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.planPath, "plan", "p", "", "Path to the plan records (required)")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "Goal text shown to the advisor")
	cmd.Flags().BoolVar(&opts.guided, "guided", false, "Consult the advisor before every step")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the execution as JSON")

	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func (a *App) runReplay(ctx context.Context, opts *replayOptions) (err error) {
	data, err := os.ReadFile(opts.planPath)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	records, err := plan.DecodeRecords(data)
	if err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}
	p, err := plan.Resolve(records, travel.Registry())
	if err != nil {
		return fmt.Errorf("resolve plan: %w", err)
	}

	rt, err := a.newRuntime(opts.configPath, !opts.guided)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()

	executor := rt.executor()
	x, replayErr := executor.ReplayGuided(ctx, p, travel.Booking{}, opts.goal)
	if x == nil {
		return replayErr
	}

	if opts.jsonOutput {
		if err := a.writeJSON(map[string]any{
			"id":           x.ID,
			"steps":        x.Steps,
			"final":        x.Final.Fields(),
			"reached_goal": x.ReachedGoal(),
		}); err != nil {
			return err
		}
		return replayErr
	}

	_, _ = fmt.Fprintf(a.stdout, "Replay %s (%d of %d steps)\n", x.ID, len(x.Trace), p.Len())
	a.printSteps(x.Steps)
	_, _ = fmt.Fprintf(a.stdout, "\nFinal state: {%s}\n", x.Final.Fields())
	_, _ = fmt.Fprintf(a.stdout, "Reached goal: %t\n", x.ReachedGoal())
	return replayErr
}
