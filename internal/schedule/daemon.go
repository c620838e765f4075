package schedule

import (
	"context"
	"fmt"
	"time"

	"schedule-backend/internal/components/chrono"
	"schedule-backend/internal/components/notify"
)

const DefaultEventRetention = 30 * 24 * time.Hour

// RefreshAndNotify runs Refresh and mails the failure, if any, to the operators.
func (s *Service) RefreshAndNotify(ctx context.Context, notifier notify.API) error {
	doc, err := s.Refresh(ctx)
	if err != nil {
		notifyErr := notifier.Notify(
			"schedule refresh failed",
			fmt.Sprintf("source page: %s\ntime: %s\nerror: %v\n", s.opts.PageUrl, s.clock.Now().Format(time.RFC3339), err),
		)
		if notifyErr != nil {
			s.tel.ReportBroken(report_notify_delivery, notifyErr)
		}
		return err
	}
	s.tel.ReportDebug("refreshed document", doc.Source, doc.Revision)
	return nil
}

// StartDaemon schedules a refresh (and pruning of old load events) at `spec`.
func (s *Service) StartDaemon(ctx context.Context, cron chrono.CronAPI, spec string, notifier notify.API) error {
	return cron.Cron(spec, func() {
		s.RefreshAndNotify(ctx, notifier)
		s.PruneEvents(ctx, DefaultEventRetention)
	})
}
