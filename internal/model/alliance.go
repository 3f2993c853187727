package model

// Alliance is one of the fixed vote buckets.
type Alliance string

// Alliance universe in canonical order.
const (
	LDF Alliance = "LDF"
	UDF Alliance = "UDF"
	NDA Alliance = "NDA"
	OTH Alliance = "OTH"
)

// AllianceCount is the size of the alliance universe.
const AllianceCount = 4

// Alliances lists the universe in canonical order; this order breaks ties.
var Alliances = [AllianceCount]Alliance{LDF, UDF, NDA, OTH}

// ClassifyAlliance maps a raw label onto the universe. Only exact LDF, UDF
// and NDA are kept; everything else is OTH.
func ClassifyAlliance(label string) Alliance {
	switch Alliance(label) {
	case LDF, UDF, NDA:
		return Alliance(label)
	default:
		return OTH
	}
}

// Index returns the canonical position of the alliance.
func (a Alliance) Index() int {
	switch a {
	case LDF:
		return 0
	case UDF:
		return 1
	case NDA:
		return 2
	default:
		return 3
	}
}

// Totals holds votes per alliance in canonical order.
type Totals [AllianceCount]int64

// Get returns the votes of one alliance.
func (t Totals) Get(a Alliance) int64 {
	return t[a.Index()]
}

// Sum returns the total votes across all alliances.
func (t Totals) Sum() int64 {
	var sum int64
	for _, v := range t {
		sum += v
	}
	return sum
}

// AggregatedEntity is the per-entity fold of vote rows.
type AggregatedEntity struct {
	EntityID     int64
	EntityLabel  string
	EntityNumber string
	EntitySuffix string
	Totals       Totals
}

// Placement is one alliance's position in an entity ranking.
type Placement struct {
	Alliance Alliance
	Votes    int64
}

// RankedEntity is an aggregated entity with its alliance ranking.
type RankedEntity struct {
	AggregatedEntity
	Ranking []Placement
}

// AllianceRankSummary counts placements of one alliance across entities.
type AllianceRankSummary struct {
	Alliance    Alliance
	FirstCount  int
	SecondCount int
	ThirdCount  int
}
