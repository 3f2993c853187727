package stats

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/votes"
)

// Fetcher loads the raw inputs of a results report.
type Fetcher interface {
	VoteRows(ctx context.Context, kind model.Kind, scopeID int64) ([]model.VoteRow, error)
	Entities(ctx context.Context, kind model.Kind, scopeID int64) ([]model.Entity, error)
}

// Report contains precomputed data for results rendering.
type Report struct {
	Kind     model.Kind
	ScopeID  int64
	Ranked   []model.RankedEntity
	Summary  Summary
	Totals   model.Totals
	Verdicts map[int64]*model.Verdict
}

// BuildReport loads vote rows for one scope, reduces them to alliance
// totals and ranks every entity. Verdicts come from the entity list; when
// that fetch fails the report is built without them.
func BuildReport(ctx context.Context, f Fetcher, kind model.Kind, scopeID int64, log logrus.FieldLogger) (Report, error) {
	rows, err := f.VoteRows(ctx, kind, scopeID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load %s votes: %w", kind, err)
	}
	entities, err := f.Entities(ctx, kind, scopeID)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{"kind": kind, "scope": scopeID}).Warn("failed to load verdicts")
		entities = nil
	}

	ranked := RankAll(votes.Reduce(rows))
	return Report{
		Kind:     kind,
		ScopeID:  scopeID,
		Ranked:   ranked,
		Summary:  Summarize(ranked),
		Totals:   TotalVotes(ranked),
		Verdicts: verdictIndex(entities),
	}, nil
}

func verdictIndex(entities []model.Entity) map[int64]*model.Verdict {
	out := make(map[int64]*model.Verdict, len(entities))
	for _, e := range entities {
		if e.Verdict != nil {
			out[e.ID] = e.Verdict
		}
	}
	return out
}
