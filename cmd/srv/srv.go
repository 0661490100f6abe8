package main

import (
	"context"
	"net/http"

	"github.com/peerquest-lab/backend/config"
	"github.com/peerquest-lab/backend/internal/domain"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/logger"
	"github.com/peerquest-lab/backend/pkg/router"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/peerquest-lab/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	questRepo        repository.QuestRepository
	attestationRepo  repository.AttestationRepository
	userRepo         repository.UserRepository
	failedRewardRepo repository.FailedRewardRepository

	questDomain domain.QuestDomain

	redisClient xredis.Client
	router      *router.Router
	server      *http.Server
}

func (s *srv) loadConfig(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.INFO))
}

func (s *srv) loadDatabase() {
	dbCfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                      dbCfg.ConnectionString(),
		DefaultStringSize:        256,
		DisableDatetimePrecision: true,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.questRepo = repository.NewQuestRepository()
	s.attestationRepo = repository.NewAttestationRepository()
	s.userRepo = repository.NewUserRepository()
	s.failedRewardRepo = repository.NewFailedRewardRepository()
}

func (s *srv) loadDomains() {
	s.questDomain = domain.NewQuestDomain(
		s.questRepo,
		s.attestationRepo,
		s.userRepo,
		s.failedRewardRepo,
		s.redisClient,
	)
}
