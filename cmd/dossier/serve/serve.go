// Package servecmder provides the serve command for running the dossier services.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/api"
	"github.com/quarryhq/dossier/api/mcp"
	"github.com/quarryhq/dossier/cmd/dossier/setup"
	"github.com/quarryhq/dossier/pkg/config"
	"github.com/quarryhq/dossier/pkg/logger"
)

type ServeCommander struct {
	listen string
	noMCP  bool
	debug  bool
	logger *zap.Logger
}

const serveLongDesc string = `Run the dossier services.

Starts the HTTP API server and, unless disabled, mounts the MCP server at
/mcp on the same listener. Research agents connect over MCP to use the
knowledge_retrieve and knowledge_ingest tools; everything else (playbook
inspection, stats) is available over plain HTTP.

Configuration is read from config.toml in the .dossier/ directory,
overridable with DOSSIER_* environment variables and CLI flags.

Examples:
  dossier serve
  dossier serve --listen :9090
  dossier serve --no-mcp`

const serveShortDesc string = "Run the dossier API and MCP server"

var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, []string{config.FlagAPIListen})

			cmder.listen = v.GetString("api.listen")
			return cmder.run(v, configDir)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP server")

	return cmd
}

func (c *ServeCommander) run(v *viper.Viper, configDir string) error {
	c.logger = logger.NewZap(c.debug)
	defer c.logger.Sync()

	cache, closer, err := setup.BuildCache(v, configDir, c.logger)
	if err != nil {
		return err
	}
	defer closer()

	apiConfig := api.Config{
		ListenAddr: c.listen,
	}

	server, err := api.NewServer(apiConfig, cache, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Cache:  cache,
		Noop:   c.noMCP,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}
	if !c.noMCP {
		server.MountMCP("/mcp", mcpServer.Handler())
	}

	c.logger.Info("starting dossier server",
		zap.String("listen", c.listen),
		zap.Bool("mcp", !c.noMCP),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
