package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/config"
	"github.com/PRANJALBANSALJI/Kanban/internal/db"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		configPath string
		email      string
		fullName   string
		password   string
		admin      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long:  "Creates a user account, prompting for a password when --password is not given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, configPath, email, fullName, password, admin)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kanban.yaml", "path to config file")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&fullName, "name", "n", "", "full name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the site-wide admin role")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runUserCreate(cmd *cobra.Command, configPath, email, fullName, password string, admin bool) error {
	out := cmd.OutOrStdout()
	email = strings.ToLower(strings.TrimSpace(email))

	if password == "" {
		fmt.Fprint(out, "Enter password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(passwordBytes)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	if admin {
		if err := db.SeedAdmin(gormDB, email, fullName, password); err != nil {
			return err
		}
		fmt.Fprintf(out, "Admin account %s ready\n", email)
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	profile := models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         "user",
	}
	if err := gormDB.Create(&profile).Error; err != nil {
		return fmt.Errorf("create user %s: %w", email, err)
	}
	fmt.Fprintf(out, "Created user %s\n", email)
	return nil
}
