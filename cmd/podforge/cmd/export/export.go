package export

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"podforge/internal/app/credits"
	"podforge/internal/app/repository"
	"podforge/internal/app/repository/pg"
	"podforge/internal/app/repository/sqlite"
	"podforge/internal/config"
)

var userID string
var outputFilePath string

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "user id whose ledger history to export")
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "set outputFilePath")

	Cmd.MarkFlagRequired("user")
	Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's credit transaction history to excel",
	Long: `Export a user's credit transaction history to excel

- Writes every ledger row for the user, oldest first`,
	Run: func(cmd *cobra.Command, args []string) {
		var dao repository.CreditDAO
		driver, dsn := config.DatabaseDSN()
		if driver == "postgres" {
			db, err := pg.NewPostgresDB(dsn)
			if err != nil {
				log.Fatalf("Failed to connect to postgres: %v\n", err)
			}
			dao = db
		} else {
			dao = sqlite.NewSQLiteDB(dsn)
		}
		defer dao.Close()

		transactions, err := dao.ListTransactionsByUser(context.Background(), userID)
		if err != nil {
			log.Fatal(err)
		}

		if err := credits.ToExcel(transactions, outputFilePath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("export finished, exported file path: %v\n", outputFilePath)
	},
}
