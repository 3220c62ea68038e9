package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PRANJALBANSALJI/Kanban/internal/audit"
	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/config"
	"github.com/PRANJALBANSALJI/Kanban/internal/db"
	"github.com/PRANJALBANSALJI/Kanban/internal/notify"
	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
	"github.com/PRANJALBANSALJI/Kanban/internal/store"
	"github.com/PRANJALBANSALJI/Kanban/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kanban server",
		Long:  "Serves the HTTP API, the realtime websocket endpoints and the admin surface.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kanban.yaml", "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	hub := realtime.NewHub()
	notifier := notify.New(gormDB, cfg.Notifications.SlackWebhookURL)

	// Due-date reminder sweep.
	go func() {
		reminders := notify.NewReminders(gormDB, notifier)
		if err := reminders.Run(ctx, cfg.Notifications.DueReminderSchedule); err != nil {
			log.Printf("kanban: reminders: %v", err)
		}
	}()

	return web.Start(ctx, web.StartOpts{
		DB:       gormDB,
		Hub:      hub,
		Store:    store.New(gormDB, hub),
		Sessions: auth.NewSessions(cfg.Auth.Secret, cfg.Auth.SessionTTL),
		Notifier: notifier,
		Audit:    audit.NewLogger(gormDB),
		Port:     port,
		Out:      cmd.OutOrStdout(),
	})
}
