// Package votes folds raw alliance vote rows into per-entity totals.
package votes

import "github.com/verte-zerg/boothdesk/internal/model"

// Reduce folds rows into one AggregatedEntity per entity id, in first-seen
// order. The first row of an entity sets its label and number. Unknown
// alliance labels count as OTH and negative votes count as zero.
func Reduce(rows []model.VoteRow) []model.AggregatedEntity {
	if len(rows) == 0 {
		return []model.AggregatedEntity{}
	}
	index := make(map[int64]int, len(rows))
	out := make([]model.AggregatedEntity, 0, len(rows))
	for _, row := range rows {
		pos, ok := index[row.EntityID]
		if !ok {
			pos = len(out)
			index[row.EntityID] = pos
			out = append(out, model.AggregatedEntity{
				EntityID:     row.EntityID,
				EntityLabel:  row.EntityLabel,
				EntityNumber: row.EntityNumber,
				EntitySuffix: row.EntitySuffix,
			})
		}
		alliance := model.ClassifyAlliance(row.Alliance)
		out[pos].Totals[alliance.Index()] += clampVotes(row.Votes)
	}
	return out
}

func clampVotes(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
