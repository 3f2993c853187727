// Package bulk applies one mutation to a whole selection in a single request.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/verte-zerg/boothdesk/internal/model"
)

// Op names a bulk mutation.
type Op int

// Supported operations.
const (
	AssignBoothsToLocalbody Op = iota
	UnassignBoothsFromLocalbody
	AssignWardsToAssembly
	UnassignWardsFromAssembly
)

// Validation errors returned before any request is sent.
var (
	ErrEmptySelection = errors.New("select at least one entity")
	ErrMissingTarget  = errors.New("choose a target first")
	ErrInFlight       = errors.New("a mutation is already in progress")
	ErrUnknownOp      = errors.New("unknown bulk operation")
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case AssignBoothsToLocalbody:
		return "assign booths to localbody"
	case UnassignBoothsFromLocalbody:
		return "unassign booths from localbody"
	case AssignWardsToAssembly:
		return "assign wards to assembly"
	case UnassignWardsFromAssembly:
		return "unassign wards from assembly"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Kind returns the entity kind the operation mutates.
func (o Op) Kind() model.Kind {
	if o == AssignWardsToAssembly || o == UnassignWardsFromAssembly {
		return model.KindWard
	}
	return model.KindBooth
}

// Clears reports whether the operation removes the assignment.
func (o Op) Clears() bool {
	return o == UnassignBoothsFromLocalbody || o == UnassignWardsFromAssembly
}

// OpFor picks the operation for a kind. unassign selects the clearing variant.
func OpFor(kind model.Kind, unassign bool) Op {
	switch {
	case kind == model.KindWard && unassign:
		return UnassignWardsFromAssembly
	case kind == model.KindWard:
		return AssignWardsToAssembly
	case unassign:
		return UnassignBoothsFromLocalbody
	default:
		return AssignBoothsToLocalbody
	}
}

func (o Op) valid() bool {
	return o >= AssignBoothsToLocalbody && o <= UnassignWardsFromAssembly
}

// SubmitError carries a failed submission's server text verbatim.
type SubmitError struct {
	Status int
	Text   string
}

func (e *SubmitError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Text
}

// Submitter sends one mutation payload for an entity kind.
type Submitter interface {
	Submit(ctx context.Context, kind model.Kind, req model.MutationRequest) (model.MutationResult, error)
}

// Outcome reports a successful mutation. Reload asks the caller to refetch
// the source list, which also resets its selection.
type Outcome struct {
	Message string
	Reload  bool
}

// Coordinator validates selections and submits them one batch at a time.
type Coordinator struct {
	submitter Submitter
	inFlight  atomic.Bool
}

// New constructs a Coordinator.
func New(s Submitter) *Coordinator {
	return &Coordinator{submitter: s}
}

// InFlight reports whether a submission is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

// Apply submits op for ids in one request. Assign operations need a target;
// unassign operations always send a null target. On failure the caller keeps
// its selection so the user can retry.
func (c *Coordinator) Apply(ctx context.Context, op Op, ids []int64, target *int64) (Outcome, error) {
	if !op.valid() {
		return Outcome{}, ErrUnknownOp
	}
	if len(ids) == 0 {
		return Outcome{}, ErrEmptySelection
	}
	if !op.Clears() && target == nil {
		return Outcome{}, ErrMissingTarget
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrInFlight
	}
	defer c.inFlight.Store(false)

	req := BuildRequest(op, ids, target)
	res, err := c.submitter.Submit(ctx, op.Kind(), req)
	if err != nil {
		var se *SubmitError
		if errors.As(err, &se) {
			return Outcome{}, err
		}
		return Outcome{}, &SubmitError{Text: err.Error()}
	}
	return Outcome{Message: res.Message, Reload: true}, nil
}

// BuildRequest creates the payload for op: ids ascending without duplicates,
// target dropped for clearing operations.
func BuildRequest(op Op, ids []int64, target *int64) model.MutationRequest {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:0]
	for _, id := range sorted {
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	req := model.MutationRequest{EntityIDs: out}
	if !op.Clears() && target != nil {
		t := *target
		req.Target = &t
	}
	return req
}
