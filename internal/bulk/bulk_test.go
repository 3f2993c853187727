package bulk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/boothdesk/internal/model"
)

type recordingSubmitter struct {
	calls   int
	kind    model.Kind
	req     model.MutationRequest
	result  model.MutationResult
	err     error
	started chan struct{}
	release chan struct{}
}

func (r *recordingSubmitter) Submit(ctx context.Context, kind model.Kind, req model.MutationRequest) (model.MutationResult, error) {
	r.calls++
	r.kind = kind
	r.req = req
	if r.started != nil {
		close(r.started)
		<-r.release
	}
	return r.result, r.err
}

func ptr(v int64) *int64 { return &v }

func TestApplyAssignSendsOneSortedBatch(t *testing.T) {
	s := &recordingSubmitter{result: model.MutationResult{Message: "3 booths assigned"}}
	c := New(s)

	out, err := c.Apply(context.Background(), AssignBoothsToLocalbody, []int64{9, 3, 5, 3}, ptr(42))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Message: "3 booths assigned", Reload: true}, out)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, model.KindBooth, s.kind)
	assert.Equal(t, []int64{3, 5, 9}, s.req.EntityIDs)
	require.NotNil(t, s.req.Target)
	assert.Equal(t, int64(42), *s.req.Target)
}

func TestApplyUnassignSendsNullTarget(t *testing.T) {
	s := &recordingSubmitter{result: model.MutationResult{Message: "ok"}}
	c := New(s)

	_, err := c.Apply(context.Background(), UnassignWardsFromAssembly, []int64{1}, ptr(7))
	require.NoError(t, err)
	assert.Equal(t, model.KindWard, s.kind)
	assert.Nil(t, s.req.Target)
}

func TestApplyValidationSendsNothing(t *testing.T) {
	s := &recordingSubmitter{}
	c := New(s)

	_, err := c.Apply(context.Background(), AssignBoothsToLocalbody, nil, ptr(1))
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = c.Apply(context.Background(), AssignWardsToAssembly, []int64{1}, nil)
	assert.ErrorIs(t, err, ErrMissingTarget)

	_, err = c.Apply(context.Background(), Op(99), []int64{1}, ptr(1))
	assert.ErrorIs(t, err, ErrUnknownOp)

	assert.Equal(t, 0, s.calls)
}

func TestApplyFailureKeepsServerText(t *testing.T) {
	s := &recordingSubmitter{err: &SubmitError{Status: 400, Text: "Localbody 42 is in another district"}}
	c := New(s)

	_, err := c.Apply(context.Background(), AssignBoothsToLocalbody, []int64{1}, ptr(42))
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Status)
	assert.Equal(t, "Localbody 42 is in another district", err.Error())
	assert.False(t, c.InFlight())
}

func TestApplyWrapsTransportErrors(t *testing.T) {
	s := &recordingSubmitter{err: errors.New("connection refused")}
	c := New(s)

	_, err := c.Apply(context.Background(), AssignBoothsToLocalbody, []int64{1}, ptr(2))
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "connection refused", se.Text)
}

func TestApplyRejectsConcurrentSubmit(t *testing.T) {
	s := &recordingSubmitter{
		result:  model.MutationResult{Message: "done"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(s)

	done := make(chan error, 1)
	go func() {
		_, err := c.Apply(context.Background(), AssignBoothsToLocalbody, []int64{1}, ptr(2))
		done <- err
	}()
	<-s.started
	assert.True(t, c.InFlight())

	_, err := c.Apply(context.Background(), AssignBoothsToLocalbody, []int64{2}, ptr(2))
	assert.ErrorIs(t, err, ErrInFlight)

	close(s.release)
	require.NoError(t, <-done)
	assert.False(t, c.InFlight())
	assert.Equal(t, 1, s.calls)
}

func TestOpFor(t *testing.T) {
	assert.Equal(t, AssignBoothsToLocalbody, OpFor(model.KindBooth, false))
	assert.Equal(t, UnassignBoothsFromLocalbody, OpFor(model.KindBooth, true))
	assert.Equal(t, AssignWardsToAssembly, OpFor(model.KindWard, false))
	assert.Equal(t, UnassignWardsFromAssembly, OpFor(model.KindWard, true))
}
