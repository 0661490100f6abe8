package main

import (
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/urfave/cli/v2"
)

func (s *srv) migrate(ct *cli.Context) error {
	s.loadConfig(ct.String("config"))
	s.loadDatabase()

	return entity.MigrateTable(s.ctx)
}
