package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
	"github.com/Shivanand-hulikatti/skillsforge/internal/service"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for workshops starting in the next 24 to 48 hours",
	Long: `Scans the date index for workshops scheduled between 24 and 48 hours from
now and emits one WORKSHOP_REMINDER event per workshop. Each workshop is
claimed before its event is sent, so overlapping runs never double-send.
Intended to be run from a scheduler such as cron.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.close(ctx)
		}()

		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}
		reminders := service.NewReminderService(repository.NewWorkshopRepository(a.table), a.notifier, a.logger)
		sent, err := reminders.SendDue(cmd.Context(), time.Now().In(loc))
		if err != nil {
			return err
		}
		a.logger.Info("reminders sent", "count", sent)
		return nil
	},
}
