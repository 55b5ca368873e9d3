package main

import (
	"fmt"

	"bugboard/configs"
	"bugboard/internal/repository"
	"bugboard/pkg/crypto"
	"bugboard/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Long: `Create every table BugBoard needs if it does not exist yet.

With --drop the existing tables are removed first. All data is lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		drop, _ := cmd.Flags().GetBool("drop")
		cfg := configs.LoadConfig()

		db, err := database.ConnectDB(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if drop {
			if err := repository.DeleteAllTable(db); err != nil {
				return fmt.Errorf("drop tables: %w", err)
			}
			fmt.Println(color.YellowString("Dropped all tables"))
		}
		if err := repository.CreateTableIfNotExists(db); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		fmt.Println(color.GreenString("Tables ready in %s", cfg.DBName))
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new APP_ENCRYPTION_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var checkEnvCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Report required environment variables that are not set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.LoadConfig()
		missing := cfg.Missing()
		if len(missing) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("All required variables are set"))
		} else {
			red := color.New(color.FgRed).SprintFunc()
			for _, key := range missing {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", red("missing"), key)
			}
		}
		if _, err := crypto.ParseKey(cfg.EncryptionKey); cfg.EncryptionKey != "" && err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s APP_ENCRYPTION_KEY: %v\n", color.YellowString("invalid"), err)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%d required variables missing", len(missing))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("drop", false, "drop existing tables before creating them")
}
