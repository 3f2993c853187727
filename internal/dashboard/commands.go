package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/boothdesk/internal/bulk"
	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/stats"
)

// Backend is everything the dashboard reads from and writes to.
// *client.Client satisfies it.
type Backend interface {
	stats.Fetcher
	bulk.Submitter
	Districts(ctx context.Context) ([]model.Option, error)
	Scopes(ctx context.Context, kind model.Kind, districtID int64) ([]model.Option, error)
	Targets(ctx context.Context, kind model.Kind, districtID int64) ([]model.Option, error)
}

type districtsMsg struct {
	options []model.Option
	err     error
}

type optionsMsg struct {
	kind     model.Kind
	district int64
	scopes   []model.Option
	targets  []model.Option
	err      error
}

type entitiesMsg struct {
	kind     model.Kind
	scopeID  int64
	entities []model.Entity
	err      error
}

type reportMsg struct {
	report stats.Report
	err    error
}

type submitMsg struct {
	kind    model.Kind
	outcome bulk.Outcome
	err     error
}

func fetchDistricts(b Backend) tea.Cmd {
	return func() tea.Msg {
		opts, err := b.Districts(context.Background())
		return districtsMsg{options: opts, err: err}
	}
}

func fetchOptions(b Backend, kind model.Kind, districtID int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		scopes, err := b.Scopes(ctx, kind, districtID)
		if err != nil {
			return optionsMsg{kind: kind, district: districtID, err: err}
		}
		targets, err := b.Targets(ctx, kind, districtID)
		return optionsMsg{kind: kind, district: districtID, scopes: scopes, targets: targets, err: err}
	}
}

// fetchEntities is never cancelled; a slow response for an older scope can
// land after a newer one and replace it.
func fetchEntities(b Backend, kind model.Kind, scopeID int64) tea.Cmd {
	return func() tea.Msg {
		entities, err := b.Entities(context.Background(), kind, scopeID)
		return entitiesMsg{kind: kind, scopeID: scopeID, entities: entities, err: err}
	}
}

func fetchReport(b Backend, kind model.Kind, scopeID int64, log logrus.FieldLogger) tea.Cmd {
	return func() tea.Msg {
		report, err := stats.BuildReport(context.Background(), b, kind, scopeID, log)
		return reportMsg{report: report, err: err}
	}
}

func submit(c *bulk.Coordinator, kind model.Kind, op bulk.Op, ids []int64, target *int64) tea.Cmd {
	return func() tea.Msg {
		outcome, err := c.Apply(context.Background(), op, ids, target)
		return submitMsg{kind: kind, outcome: outcome, err: err}
	}
}
