package api

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/paper-courier/internal/jobs"
)

var knownStatusKeys = map[string]struct{}{
	"job_id":      {},
	"status":      {},
	"progress":    {},
	"error":       {},
	"total_pages": {},
}

type wireProgress struct {
	Percent        *float64 `json:"percent"`
	ProcessedPages *int     `json:"processed_pages"`
	TotalPages     *int     `json:"total_pages"`
}

// parseStatus はステータス応答を StatusReport に変換します。
// 既知の項目以外は Extras に入れます。progress がない応答では total_pages を総数として使います。
func parseStatus(raw map[string]json.RawMessage) (jobs.StatusReport, error) {
	var report jobs.StatusReport

	if v, ok := raw["job_id"]; ok {
		_ = json.Unmarshal(v, &report.JobID)
	}

	var status string
	if err := json.Unmarshal(raw["status"], &status); err != nil {
		return jobs.StatusReport{}, fmt.Errorf("api: status response has no status: %w", err)
	}
	parsed, ok := jobs.ParseStatus(status)
	if !ok {
		return jobs.StatusReport{}, fmt.Errorf("api: unknown job status %q", status)
	}
	report.Status = parsed

	if v, ok := raw["progress"]; ok && string(v) != "null" {
		var p wireProgress
		if err := json.Unmarshal(v, &p); err != nil {
			return jobs.StatusReport{}, fmt.Errorf("api: invalid progress: %w", err)
		}
		if p.Percent != nil {
			report.Progress.Percent = int(*p.Percent)
		}
		if p.ProcessedPages != nil {
			report.Progress.ProcessedUnits = *p.ProcessedPages
		}
		if p.TotalPages != nil {
			report.Progress.TotalUnits = *p.TotalPages
		}
	} else if v, ok := raw["total_pages"]; ok {
		_ = json.Unmarshal(v, &report.Progress.TotalUnits)
	}

	if v, ok := raw["error"]; ok && string(v) != "null" {
		var msg string
		if err := json.Unmarshal(v, &msg); err != nil {
			msg = string(v)
		}
		report.Error = msg
	}

	report.Extras = make(map[string]any)
	for k, v := range raw {
		if _, known := knownStatusKeys[k]; known {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return jobs.StatusReport{}, fmt.Errorf("api: invalid field %s: %w", k, err)
		}
		report.Extras[k] = val
	}
	return report, nil
}
