package main

import "github.com/urfave/cli/v2"

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Path of the TOML config file",
}

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "PeerQuest"
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api service",
			Flags:       []cli.Flag{configFlag},
			Category:    "Api",
			Description: `Serves the quest lifecycle operations over HTTP.`,
		},
		{
			Action:      server.startRecovery,
			Name:        "recovery",
			Usage:       "Start the failed reward recovery worker",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Retries reward credits that could not be applied when their quests completed.`,
		},
		{
			Action:      server.migrate,
			Name:        "migrate",
			Usage:       "Migrate database tables",
			Flags:       []cli.Flag{configFlag},
			Category:    "Database",
		},
	}

	s.app = app
}
