package main

import (
	"errors"
	"fmt"

	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/services"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			logging.L.Info("✅ Database schema is up to date")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			authService := services.NewAuthService(db, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
			user, err := authService.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (at least 8 characters)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newGmailAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gmail-auth",
		Short: "Authorize the Gmail account used for notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return auth.AuthorizeGmail(cmd.Context(), cfg.Mail.CredentialsFile, cfg.Mail.TokenFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
