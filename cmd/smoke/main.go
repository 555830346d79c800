// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package main

import (
	"context"
	"fmt"
	"github.com/hchauvin/smoke/pkg/commands"
	"github.com/urfave/cli"
	"os"
)

var (
	version = "dev"
	commit  = "<none>"
	date    = "<unknown>"
)

func main() {
	app := cli.NewApp()

	app.Version = fmt.Sprintf("%s (commit: %s; date: %s)", version, commit, date)
	app.Name = "smoke"
	app.Usage = "Smoke tests an HTTP endpoint"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "TOML project-wide config file.  Optional: the defaults target http://localhost:4221/files/banana.",
			Value: ".smokerc.toml",
		},
		cli.StringFlag{
			Name:  "cwd",
			Usage: "Working directory",
			Value: ".",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:        "run",
			Usage:       "Sends one GET request and checks the status code",
			ArgsUsage:   "[url]",
			Description: "Sends one GET request, prints the response body, and fails unless the status code is the expected one (200 by default).  There is no retry and no timeout.",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "user_agent",
					Usage: "User-Agent header",
				},
				cli.StringSliceFlag{
					Name:  "header",
					Usage: "Additional header, as name=value",
				},
				cli.BoolFlag{
					Name:  "verify_tls",
					Usage: "Verifies the server certificates.  Disabled by default.",
				},
				cli.IntFlag{
					Name:  "expect_status",
					Usage: "Expected status code",
				},
			},
			Action: func(c *cli.Context) error {
				return commands.Run(context.Background(), &commands.RunCfg{
					WorkingDir:     c.GlobalString("cwd"),
					ConfigPath:     c.GlobalString("config"),
					URL:            c.Args().First(),
					UserAgent:      c.String("user_agent"),
					Headers:        c.StringSlice("header"),
					VerifyTLS:      c.Bool("verify_tls"),
					ExpectedStatus: c.Int("expect_status"),
				})
			},
		},
		{
			Name:        "serve",
			Usage:       "Serves the fixture files",
			Description: "Serves files from a folder on /files/<name> (GET and POST), along with /echo/<message> and /user-agent, until interrupted (Ctl-C).",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "addr",
					Usage: "Address to listen on (default from config, ':4221')",
				},
				cli.StringFlag{
					Name:  "root",
					Usage: "Folder to serve (default from config, '.')",
				},
			},
			Action: func(c *cli.Context) error {
				return commands.Serve(&commands.ServeCfg{
					WorkingDir: c.GlobalString("cwd"),
					ConfigPath: c.GlobalString("config"),
					Addr:       c.String("addr"),
					Root:       c.String("root"),
				})
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		if _, err := fmt.Fprintf(os.Stderr, "%v\n", err); err != nil {
			panic(err.Error())
		}
		os.Exit(1)
	}
}
