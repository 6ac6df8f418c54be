package query

import (
	"context"

	"github.com/obsforge/obsforge/internal/models"
	"github.com/obsforge/obsforge/internal/repository"
)

// ValidationReportResult classifies a schedule's validation issues into the
// three status buckets the rule catalog can emit.
type ValidationReportResult struct {
	Impossible []models.ValidationResult
	Errors     []models.ValidationResult
	Warnings   []models.ValidationResult
}

// ValidationReport returns every validation issue for scheduleID, bucketed
// by status.
func ValidationReport(ctx context.Context, repo repository.Repository, scheduleID int64) (ValidationReportResult, error) {
	if _, err := repo.GetSchedule(ctx, scheduleID); err != nil {
		return ValidationReportResult{}, err
	}

	results, err := repo.GetValidationResults(ctx, scheduleID)
	if err != nil {
		return ValidationReportResult{}, err
	}

	var res ValidationReportResult
	for _, r := range results {
		switch r.Status {
		case "impossible":
			res.Impossible = append(res.Impossible, r)
		case "error":
			res.Errors = append(res.Errors, r)
		case "warning":
			res.Warnings = append(res.Warnings, r)
		}
	}
	return res, nil
}
