package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/boothdesk/internal/bulk"
	"github.com/verte-zerg/boothdesk/internal/model"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 0, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ", 0, nil)
	assert.Error(t, err)
}

func TestEntitiesDecodesVerdictAndAssignment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/assemblies/4/booths", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": 1, "number": "12", "suffix": "A", "name": "Govt LPS", "parent_id": 4,
			 "assigned_id": 7, "assigned_name": "Kottayam", "assigned_type": "Municipality",
			 "winnable": true, "gap_percent": 3.25, "verdict": "POSSIBLE_WITH_SWING"},
			{"id": 2, "number": "13", "name": "Town Hall", "parent_id": 4, "assigned_id": null}
		]`)
	})
	c := newTestClient(t, mux)

	got, err := c.Entities(context.Background(), model.KindBooth, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "12A", got[0].DisplayNumber())
	require.NotNil(t, got[0].AssignedID)
	assert.Equal(t, int64(7), *got[0].AssignedID)
	require.NotNil(t, got[0].Verdict)
	assert.True(t, got[0].Verdict.Winnable)
	assert.Equal(t, model.VerdictPossibleWithSwing, got[0].Verdict.Class)
	require.NotNil(t, got[0].Verdict.GapPercent)
	assert.InDelta(t, 3.25, *got[0].Verdict.GapPercent, 1e-9)

	assert.Nil(t, got[1].AssignedID)
	assert.Nil(t, got[1].Verdict)
	assert.Equal(t, model.KindBooth, got[1].Kind)
}

func TestMalformedListsDecodeEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/localbodies/3/wards", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"detail": "not a list"}`)
	})
	mux.HandleFunc("GET /api/localbodies/3/ward-votes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops`)
	})
	c := newTestClient(t, mux)

	entities, err := c.Entities(context.Background(), model.KindWard, 3)
	require.NoError(t, err)
	assert.NotNil(t, entities)
	assert.Empty(t, entities)

	rows, err := c.VoteRows(context.Background(), model.KindWard, 3)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestVoteRowsClampsNegativeAndMissingVotes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/assemblies/1/booth-votes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"entity_id": 5, "number": "1", "name": "North", "alliance": "LDF", "votes": 40},
			{"entity_id": 5, "number": "1", "name": "North", "alliance": "UDF", "votes": -3},
			{"entity_id": 5, "number": "1", "name": "North", "alliance": "NDA"}
		]`)
	})
	c := newTestClient(t, mux)

	rows, err := c.VoteRows(context.Background(), model.KindBooth, 1)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(40), rows[0].Votes)
	assert.Equal(t, int64(0), rows[1].Votes)
	assert.Equal(t, int64(0), rows[2].Votes)
	assert.Equal(t, "North", rows[0].EntityLabel)
}

func TestFetchStatusErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/districts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	c := newTestClient(t, mux)

	_, err := c.Districts(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestTargetsAndScopesPickUnits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/districts/2/assemblies", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 10, "name": "Pala", "number": "93"}]`)
	})
	mux.HandleFunc("GET /api/districts/2/localbodies", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 20, "name": "Kottayam", "type": "Municipality"}]`)
	})
	c := newTestClient(t, mux)

	targets, err := c.Targets(context.Background(), model.KindBooth, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 20, Name: "Kottayam", Type: "Municipality"}}, targets)

	scopes, err := c.Scopes(context.Background(), model.KindBooth, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 10, Name: "Pala", Number: "93"}}, scopes)
}

func TestSubmitSendsSinglePayload(t *testing.T) {
	var calls int
	var body map[string]json.RawMessage
	var requestID string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/wards/assembly", func(w http.ResponseWriter, r *http.Request) {
		calls++
		requestID = r.Header.Get(RequestIDHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message": "2 wards unassigned"}`)
	})
	c := newTestClient(t, mux)

	res, err := c.Submit(context.Background(), model.KindWard, model.MutationRequest{EntityIDs: []int64{3, 8}})
	require.NoError(t, err)
	assert.Equal(t, "2 wards unassigned", res.Message)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, `[3, 8]`, string(body["entity_ids"]))
	assert.JSONEq(t, `null`, string(body["target"]))
	_, err = uuid.Parse(requestID)
	assert.NoError(t, err)
}

func TestSubmitReturnsServerTextVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/booths/localbody", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, "Localbody 9 does not exist")
	})
	c := newTestClient(t, mux)

	target := int64(9)
	_, err := c.Submit(context.Background(), model.KindBooth, model.MutationRequest{EntityIDs: []int64{1}, Target: &target})
	var se *bulk.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "Localbody 9 does not exist", se.Text)
}
