// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"github.com/pdiddy/confharvest/pkg/types"
)

// Summary aggregates the outcomes of a run.
type Summary struct {
	Total   int `json:"total_papers" yaml:"total_papers"`
	Success int `json:"successful_downloads" yaml:"successful_downloads"`
	Exists  int `json:"existing_files" yaml:"existing_files"`
	Failed  int `json:"failed_downloads" yaml:"failed_downloads"`

	// SuccessRate is (success + exists) / total as a percentage.
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`

	// Methods counts successful downloads per resolution method.
	Methods map[types.Method]int `json:"download_methods" yaml:"download_methods"`

	// Reasons counts failures per reason.
	Reasons map[types.FailureReason]int `json:"failure_reasons,omitempty" yaml:"failure_reasons,omitempty"`

	// Pending is the number of papers not started because the run was
	// interrupted.
	Pending int `json:"pending,omitempty" yaml:"pending,omitempty"`
}

// Summarize counts annotated papers.
func Summarize(papers []types.Paper) Summary {
	s := Summary{Methods: map[types.Method]int{}}
	for _, p := range papers {
		s.Total++
		switch p.DownloadStatus {
		case types.StatusSuccess:
			s.Success++
			s.Methods[p.DownloadMethod]++
		case types.StatusExists:
			s.Exists++
		default:
			s.Failed++
			if s.Reasons == nil {
				s.Reasons = map[types.FailureReason]int{}
			}
			s.Reasons[p.FailureReason]++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Success+s.Exists) / float64(s.Total) * 100
	}
	return s
}

// HasFailures reports whether any paper failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}
