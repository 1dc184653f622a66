package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ExportJSON serializes a report and its items (supplemented feature,
// SPEC_FULL §6 "report export").
func ExportJSON(report *pkgmodels.GroupReport, items []*pkgmodels.GroupReportItem) ([]byte, error) {
	payload := struct {
		Report *pkgmodels.GroupReport        `json:"report"`
		Items  []*pkgmodels.GroupReportItem  `json:"items"`
	}{Report: report, Items: items}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return out, nil
}

// ExportCSV renders one row per report item.
func ExportCSV(items []*pkgmodels.GroupReportItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"prompt_id", "evaluation_id", "status", "is_fresh", "amount_charged"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, item := range items {
		evalID := ""
		if item.EvaluationID != nil {
			evalID = strconv.FormatInt(int64(*item.EvaluationID), 10)
		}
		amount := ""
		if item.AmountCharged != nil {
			amount = strconv.FormatFloat(*item.AmountCharged, 'f', 4, 64)
		}
		row := []string{
			strconv.FormatInt(int64(item.PromptID), 10),
			evalID,
			string(item.Status),
			strconv.FormatBool(item.IsFresh),
			amount,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
