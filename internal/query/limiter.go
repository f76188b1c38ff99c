package query

import (
	"fmt"

	"github.com/vibesql/vibedb/internal/dberr"
)

// CheckResultSize rejects result sets larger than MaxResultRows.
func CheckResultSize(rowCount int) error {
	if rowCount > MaxResultRows {
		return dberr.New(
			dberr.CodeResultTooLarge,
			"Result set too large",
			fmt.Sprintf("Query returned %d rows, exceeding the maximum limit of %d rows", rowCount, MaxResultRows),
		)
	}
	return nil
}
