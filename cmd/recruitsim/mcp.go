package main

import (
	"fmt"

	"github.com/panbanda/recruitsim/internal/mcpserver"
	"github.com/panbanda/recruitsim/internal/service/simulation"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the recruitment
simulator as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "recruitsim": {
        "command": "recruitsim",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - build_distribution    Empirical per-site distribution from a sample
  - simulate_recruitment  Probability of reaching an enrollment goal`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := simulation.New(
		simulation.WithConfig(loaded.Config),
		simulation.WithLogger(newLogger(c, loaded.Config)),
	)
	return mcpserver.NewServer(version, svc).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
