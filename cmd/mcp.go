package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbios/cohe/internal/domain"
)

func newMCPCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage MCP server definitions",
	}

	cmd.AddCommand(
		newMCPAddCmd(app),
		newMCPListCmd(app),
		newMCPRemoveCmd(app),
		newMCPEnableCmd(app),
		newMCPDisableCmd(app),
	)

	return cmd
}

func newMCPAddCmd(app *app) *cobra.Command {
	var (
		command     string
		cmdArgs     []string
		env         []string
		provider    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an MCP server definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envMap := make(map[string]string, len(env))
			for _, pair := range env {
				key, value, found := strings.Cut(pair, "=")
				if !found || key == "" {
					return fmt.Errorf("invalid --env value %q, expected KEY=VALUE", pair)
				}
				envMap[key] = value
			}
			if len(envMap) == 0 {
				envMap = nil
			}

			server, err := app.mcp.AddServer(cmd.Context(), domain.MCPServer{
				Name:        args[0],
				Command:     command,
				Args:        cmdArgs,
				Env:         envMap,
				Provider:    provider,
				Description: description,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added MCP server %s\n", server.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&command, "command", "", "Executable to launch")
	cmd.Flags().StringArrayVar(&cmdArgs, "arg", nil, "Argument to pass (repeatable)")
	cmd.Flags().StringArrayVar(&env, "env", nil, "KEY=VALUE environment entry (repeatable)")
	cmd.Flags().StringVar(&provider, "provider", "", "Restrict to a provider (zai, minimax, or all)")
	cmd.Flags().StringVar(&description, "description", "", "Human-readable description")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func newMCPListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List MCP server definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			servers, err := app.mcp.ListServers(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, server := range servers {
				state := "enabled"
				if !server.Enabled {
					state = "disabled"
				}
				command := strings.TrimSpace(server.Command + " " + strings.Join(server.Args, " "))
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", server.Name, server.Provider, command, state)
			}
			return nil
		},
	}
}

func newMCPRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an MCP server definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.mcp.RemoveServer(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed MCP server %s\n", args[0])
			return nil
		},
	}
}

func newMCPEnableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable an MCP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mcp.SetServerEnabled(cmd.Context(), args[0], true)
		},
	}
}

func newMCPDisableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable an MCP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mcp.SetServerEnabled(cmd.Context(), args[0], false)
		},
	}
}
