package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"electionadmin/internal/application/orchestrators"
	"electionadmin/internal/application/projections"
)

type sweepOptions struct {
	force       bool
	concurrency int
	rate        float64
}

func (a *App) newSweepCmd() *cobra.Command {
	opts := &sweepOptions{}
	def := orchestrators.DefaultRetentionSweepConfig()

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge soft-deleted elections whose retention window has elapsed",
		Long: `Run one retention sweep and print its report as JSON.

Without --force the sweep only runs when the persisted schedule is due,
exactly like the server's scheduler. With --force it runs immediately and
still advances the schedule.

Examples:
  electionctl sweep --db /var/lib/elections/elections.db
  electionctl sweep --force --concurrency 8 --rate 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			cfg := orchestrators.DefaultRetentionSchedulerConfig()
			cfg.Sweep.Concurrency = opts.concurrency
			cfg.Sweep.RatePerSecond = opts.rate
			scheduler := orchestrators.NewRetentionScheduler(cfg, e.schedules, e.sweepDeps)

			if opts.force {
				report, err := scheduler.RunNow(cmd.Context())
				if err != nil {
					return err
				}
				return a.writeJSON(report)
			}
			report, ran, err := scheduler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if !ran {
				fmt.Fprintln(a.stderr, "sweep not due; use --force to run now")
				return nil
			}
			return a.writeJSON(report)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Run even if the schedule is not due")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", def.Concurrency, "Purges in flight at once")
	cmd.Flags().Float64Var(&opts.rate, "rate", def.RatePerSecond, "Purges dispatched per second (0 for unlimited)")
	return cmd
}

func (a *App) newStatusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sweep schedule and upcoming purges",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			result, err := projections.QueryGetRetentionStatus(cmd.Context(), projections.GetRetentionStatusQuery{
				Limit: limit,
			}, projections.GetRetentionStatusDeps{
				ScheduleStore: e.schedules,
				ElectionStore: e.elections,
			})
			if err != nil {
				return err
			}
			return a.writeJSON(result)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum upcoming purges to list")
	return cmd
}
