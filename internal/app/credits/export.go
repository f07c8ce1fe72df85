package credits

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	apperrors "podforge/internal/app/errors"
	"podforge/internal/app/model"
)

// ToExcel writes a user's ledger history to an xlsx workbook
func ToExcel(transactions []model.CreditTransaction, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return apperrors.Wrap(err, "failed to create sheet")
	}

	headerRow := sheet.AddRow()
	headerRow.AddCell().Value = "ID"
	headerRow.AddCell().Value = "User"
	headerRow.AddCell().Value = "Time"
	headerRow.AddCell().Value = "Type"
	headerRow.AddCell().Value = "Amount"
	headerRow.AddCell().Value = "Balance After"
	headerRow.AddCell().Value = "Episode"
	headerRow.AddCell().Value = "Podcast"
	headerRow.AddCell().Value = "Description"

	for _, t := range transactions {
		row := sheet.AddRow()
		row.AddCell().Value = t.ID
		row.AddCell().Value = t.UserID
		row.AddCell().Value = t.CreatedAt.Format(time.RFC3339)
		row.AddCell().Value = string(t.Type)
		row.AddCell().Value = fmt.Sprint(t.Amount)
		row.AddCell().Value = fmt.Sprint(t.BalanceAfter)
		row.AddCell().Value = t.EpisodeID
		row.AddCell().Value = t.PodcastID
		row.AddCell().Value = t.Description
	}

	if err := file.Save(outputFilePath); err != nil {
		return apperrors.Wrapf(err, "failed to save %s", outputFilePath)
	}
	return nil
}
