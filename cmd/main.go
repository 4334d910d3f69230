package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"todo-realtime/internal/auth"
	"todo-realtime/internal/config"
	"todo-realtime/internal/database"
	"todo-realtime/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo-realtime",
		Short: "Todo REST API with real-time WebSocket notifications",
		Long: `todo-realtime serves a per-user todo REST API and broadcasts every
committed create, update and delete to all connected WebSocket clients.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE:  runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Get()
			logger.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

			db, err := database.DB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info(ctx, "Schema ready")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development HS256 token",
		Example: `  todo-realtime token --sub alice
  todo-realtime token --sub alice --ttl 1h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Get()
			sub, _ := cmd.Flags().GetString("sub")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = cfg.JWTTTL
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := auth.IssueToken(cfg.JWTSecret, sub, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Token subject (user id)")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (default JWT_TTL)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
