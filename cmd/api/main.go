package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/notehive/core/cmd/api/commands"
)

// @title NoteHive API
// @version 1.0
// @description Collaborative notes and task management backend

// @contact.name NoteHive Support
// @contact.url https://github.com/notehive/core

// @license.name MIT
// @license.url https://github.com/notehive/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "notehive",
		Short: "NoteHive API Server",
		Long:  `NoteHive is a collaborative note taking and task management backend with role-based sharing and email invitations.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewTokensCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
