package main

import (
	"github.com/spf13/cobra"

	"github.com/germanamz/koinonia/pkg/studytools"
	"github.com/germanamz/koinonia/pkg/tools/mcpserver"
)

func newMCPCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Scripture tools over MCP on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs go to stderr.
			cfg, log, err := loadConfig(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			resolver, closeDB, err := openResolver(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			ctx := cmd.Context()
			menu, err := resolver.TranslationMenu(ctx)
			if err != nil {
				return err
			}

			tools := studytools.NewDispatcher(resolver, log).ScriptureTools(menu)
			log.Info("serving mcp", "tools", len(tools.Tools()))
			return mcpserver.New(version, tools, log).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
