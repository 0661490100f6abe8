package main

import (
	"github.com/peerquest-lab/backend/internal/domain/cron"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startRecovery(ct *cli.Context) error {
	s.loadConfig(ct.String("config"))
	s.loadDatabase()
	s.loadRepos()

	cfg := xcontext.Configs(s.ctx).Recovery
	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Start(s.ctx,
		cron.NewFailedRewardRecoveryCronJob(
			s.failedRewardRepo,
			s.userRepo,
			cfg.Interval,
			cfg.LeaseTTL,
			cfg.BatchSize,
		),
	)

	return nil
}
