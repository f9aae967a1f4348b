package validation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// FinalDocument checks the table contract and explanations. A table shorter
// than the header plus six rows is padded with empty rows sized to the
// header; a longer one is rejected.
func FinalDocument(doc *types.FinalDocument) error {
	if doc == nil || doc.TableData == nil {
		return &Error{Field: "table_data", Message: "table_dataが欠落しています"}
	}

	if n := len(doc.TableData); n < types.CanonicalRowCount {
		zap.S().Warnw("table_data is short, padding with empty rows", "rows", n)
		header := []string{"", "", "", ""}
		if n > 0 {
			header = doc.TableData[0]
		}
		for len(doc.TableData) < types.CanonicalRowCount {
			doc.TableData = append(doc.TableData, make([]string, len(header)))
		}
	} else if n > types.CanonicalRowCount {
		return &Error{
			Field:   "table_data",
			Message: fmt.Sprintf("table_dataは%d行である必要があります（現在: %d行）", types.CanonicalRowCount, n),
		}
	}

	if width := len(doc.TableData[0]); width != types.CellCount {
		return &Error{
			Field:   "table_data",
			Message: fmt.Sprintf("table_dataは%d列である必要があります（現在: %d列）", types.CellCount, width),
		}
	}

	if doc.Explanations == nil {
		return &Error{Field: "explanations", Message: "explanationsが欠落しています"}
	}
	for _, item := range types.CanonicalItems() {
		if _, ok := doc.Explanations[item]; !ok {
			return &Error{Field: "explanations", Message: fmt.Sprintf("解説が欠落: %s", item)}
		}
	}

	zap.S().Debugw("final document validated")
	return nil
}
