package main

import (
	"fmt"
	"net/http"

	"github.com/peerquest-lab/backend/internal/middleware"
	"github.com/peerquest-lab/backend/pkg/router"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(ct *cli.Context) error {
	s.loadConfig(ct.String("config"))
	s.loadDatabase()
	s.loadRedisClient()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	port := xcontext.Configs(s.ctx).ApiServer.Port
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.router.Handler(),
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on port %s", port)
	if err := s.server.ListenAndServe(); err != nil {
		return err
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.Identity())

	router.POST(s.router, "/createQuest", s.questDomain.Create)
	router.POST(s.router, "/claimQuest", s.questDomain.Claim)
	router.POST(s.router, "/abandonQuest", s.questDomain.Abandon)
	router.POST(s.router, "/submitQuest", s.questDomain.Submit)
	router.POST(s.router, "/attestQuest", s.questDomain.Attest)
	router.POST(s.router, "/disputeQuest", s.questDomain.Dispute)
	router.POST(s.router, "/deleteQuest", s.questDomain.Delete)
	router.GET(s.router, "/getQuest", s.questDomain.Get)
	router.GET(s.router, "/getListQuest", s.questDomain.GetList)
}
