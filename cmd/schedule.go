package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/scheduler"
)

var scheduleRunNow string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the profiling and cleaning jobs on their cron schedule",
	Long: `Run the daily profile job and the weekly clean job until interrupted.
Schedules come from schedule.profile_cron and schedule.clean_cron.

Examples:
  dataiq schedule
  dataiq schedule --run-now daily_profile     # run one job once and exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, bootOptions{source: true})
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := newScheduler(a)
		if err != nil {
			return err
		}

		if scheduleRunNow != "" {
			mode, ok := jobModes[scheduleRunNow]
			if !ok {
				return fmt.Errorf("unknown job %q", scheduleRunNow)
			}
			s.RunJob(scheduleRunNow, mode)
			return nil
		}

		s.Start()
		for _, name := range s.Jobs() {
			if next, ok := s.Next(name); ok {
				a.logger.Info("Job scheduled", zap.String("job", name), zap.Time("next", next))
			}
		}

		<-ctx.Done()
		a.logger.Info("Stopping scheduler")
		s.Stop()
		return nil
	},
}

var jobModes = map[string]pipeline.Mode{
	"daily_profile": pipeline.ModeProfile,
	"weekly_clean":  pipeline.ModeClean,
}

func newScheduler(a *app) (*scheduler.Scheduler, error) {
	return scheduler.New(a.cfg.Schedule, a.runner, a.logger)
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleRunNow, "run-now", "",
		"Run the named job once and exit (daily_profile, weekly_clean)")
}
