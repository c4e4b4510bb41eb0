package catalog

import (
	"context"
	"time"
)

// SweepReport summarises one orphan sweep.
type SweepReport struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
	Young   int      `json:"young"`
}

// SweepOrphans reclaims uploads that no entry references and that are
// older than grace. Files left behind by a failed reclaim or a crash
// between store and persist end up here.
func (s *Service) SweepOrphans(ctx context.Context, grace time.Duration) (SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := SweepReport{Removed: []string{}}
	doc, err := s.load(ctx)
	if err != nil {
		return report, err
	}
	referenced := doc.Images()
	stored, err := s.assets.List()
	if err != nil {
		return report, err
	}

	cutoff := s.now().Add(-grace)
	for _, a := range stored {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		if _, ok := referenced[a.Ref]; ok {
			continue
		}
		if a.ModTime.After(cutoff) {
			report.Young++
			continue
		}
		s.reclaim(ctx, a.Ref)
		report.Removed = append(report.Removed, a.Ref)
	}
	if len(report.Removed) > 0 {
		s.log.Info("orphaned assets reclaimed", "count", len(report.Removed), "scanned", report.Scanned)
	}
	return report, nil
}
