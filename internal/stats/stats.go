// Package stats ranks alliance totals and renders result summaries.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/verte-zerg/boothdesk/internal/model"
)

var hundred = decimal.NewFromInt(100)

// RankEntity orders the four alliance totals by votes, descending. Equal
// votes keep the canonical order LDF, UDF, NDA, OTH.
func RankEntity(e model.AggregatedEntity) model.RankedEntity {
	ranking := make([]model.Placement, 0, model.AllianceCount)
	for _, a := range model.Alliances {
		ranking = append(ranking, model.Placement{Alliance: a, Votes: e.Totals.Get(a)})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Votes > ranking[j].Votes
	})
	return model.RankedEntity{AggregatedEntity: e, Ranking: ranking}
}

// RankAll ranks every entity, keeping input order.
func RankAll(entities []model.AggregatedEntity) []model.RankedEntity {
	out := make([]model.RankedEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, RankEntity(e))
	}
	return out
}

// Winner returns the alliance ranked first.
func Winner(e model.RankedEntity) (model.Placement, bool) {
	return placementAt(e, 0)
}

// RunnerUp returns the alliance ranked second.
func RunnerUp(e model.RankedEntity) (model.Placement, bool) {
	return placementAt(e, 1)
}

// Third returns the alliance ranked third.
func Third(e model.RankedEntity) (model.Placement, bool) {
	return placementAt(e, 2)
}

// Margin returns the winner's lead over the runner-up. It is undefined
// when fewer than two alliances are ranked.
func Margin(e model.RankedEntity) (int64, bool) {
	if len(e.Ranking) < 2 {
		return 0, false
	}
	return e.Ranking[0].Votes - e.Ranking[1].Votes, true
}

func placementAt(e model.RankedEntity, rank int) (model.Placement, bool) {
	if rank < 0 || rank >= len(e.Ranking) {
		return model.Placement{}, false
	}
	return e.Ranking[rank], true
}

// Summary holds placement counts per alliance in canonical order.
type Summary [model.AllianceCount]model.AllianceRankSummary

// Get returns the counts of one alliance.
func (s Summary) Get(a model.Alliance) model.AllianceRankSummary {
	return s[a.Index()]
}

// Summarize tallies first, second and third places across all entities.
// Fourth place is not counted.
func Summarize(entities []model.RankedEntity) Summary {
	var s Summary
	for i, a := range model.Alliances {
		s[i].Alliance = a
	}
	for _, e := range entities {
		if p, ok := Winner(e); ok {
			s[p.Alliance.Index()].FirstCount++
		}
		if p, ok := RunnerUp(e); ok {
			s[p.Alliance.Index()].SecondCount++
		}
		if p, ok := Third(e); ok {
			s[p.Alliance.Index()].ThirdCount++
		}
	}
	return s
}

// TotalVotes sums alliance votes of each entity across the scope.
func TotalVotes(entities []model.RankedEntity) model.Totals {
	var totals model.Totals
	for _, e := range entities {
		for i, v := range e.Totals {
			totals[i] += v
		}
	}
	return totals
}

// Percent formats votes as a share of total with two decimals. A zero
// total yields "0.00".
func Percent(votes, total int64) string {
	if total <= 0 {
		return "0.00"
	}
	return decimal.NewFromInt(votes).
		Mul(hundred).
		DivRound(decimal.NewFromInt(total), 2).
		StringFixed(2)
}
