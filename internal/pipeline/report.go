package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
)

// aggregates carries the visitation roll-ups included in the run report.
type aggregates struct {
	ByYear   []domain.GroupTotal `json:"by_year"`
	ByRegion []domain.GroupTotal `json:"by_region"`
	ByState  []domain.GroupTotal `json:"by_state"`
}

// Report is the JSON document written at the end of a run: the plan itself
// plus the visitation aggregates it was derived from.
type Report struct {
	Plan       domain.TourPlan `json:"plan"`
	Aggregates aggregates      `json:"aggregates"`
}

// WriteReport writes the report under dir, named after the plan ID, and
// returns the path. The directory is created if missing.
func WriteReport(dir string, report Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("tour_%s.json", report.Plan.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
