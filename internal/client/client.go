// Package client talks to the election data backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/verte-zerg/boothdesk/internal/bulk"
	"github.com/verte-zerg/boothdesk/internal/model"
)

// RequestIDHeader carries a per-mutation id for log correlation.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 30 * time.Second

// Client fetches lists and submits bulk mutations. The base URL is fixed at
// construction.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

// New constructs a Client. A zero timeout uses the default.
func New(baseURL string, timeout time.Duration, log logrus.FieldLogger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Districts lists all districts.
func (c *Client) Districts(ctx context.Context) ([]model.Option, error) {
	return c.options(ctx, "/api/districts")
}

// Assemblies lists the assemblies of a district.
func (c *Client) Assemblies(ctx context.Context, districtID int64) ([]model.Option, error) {
	return c.options(ctx, fmt.Sprintf("/api/districts/%d/assemblies", districtID))
}

// Localbodies lists the localbodies of a district.
func (c *Client) Localbodies(ctx context.Context, districtID int64) ([]model.Option, error) {
	return c.options(ctx, fmt.Sprintf("/api/districts/%d/localbodies", districtID))
}

// Targets lists the units entities of kind can be assigned to.
func (c *Client) Targets(ctx context.Context, kind model.Kind, districtID int64) ([]model.Option, error) {
	if kind == model.KindWard {
		return c.Assemblies(ctx, districtID)
	}
	return c.Localbodies(ctx, districtID)
}

// Scopes lists the units entities of kind are listed under.
func (c *Client) Scopes(ctx context.Context, kind model.Kind, districtID int64) ([]model.Option, error) {
	if kind == model.KindWard {
		return c.Localbodies(ctx, districtID)
	}
	return c.Assemblies(ctx, districtID)
}

// Entities lists the booths of an assembly or the wards of a localbody.
func (c *Client) Entities(ctx context.Context, kind model.Kind, scopeID int64) ([]model.Entity, error) {
	body, err := c.get(ctx, entitiesPath(kind, scopeID))
	if err != nil {
		return nil, err
	}
	list, ok := c.array(body, "entities")
	if !ok {
		return []model.Entity{}, nil
	}
	out := make([]model.Entity, 0, len(list))
	for _, item := range list {
		out = append(out, decodeEntity(kind, item))
	}
	return out, nil
}

// VoteRows lists per-alliance vote rows for every entity in a scope.
func (c *Client) VoteRows(ctx context.Context, kind model.Kind, scopeID int64) ([]model.VoteRow, error) {
	body, err := c.get(ctx, votesPath(kind, scopeID))
	if err != nil {
		return nil, err
	}
	list, ok := c.array(body, "votes")
	if !ok {
		return []model.VoteRow{}, nil
	}
	out := make([]model.VoteRow, 0, len(list))
	for _, item := range list {
		votes := item.Get("votes").Int()
		if votes < 0 {
			votes = 0
		}
		out = append(out, model.VoteRow{
			EntityID:     item.Get("entity_id").Int(),
			EntityNumber: item.Get("number").String(),
			EntitySuffix: item.Get("suffix").String(),
			EntityLabel:  item.Get("name").String(),
			Alliance:     item.Get("alliance").String(),
			Votes:        votes,
		})
	}
	return out, nil
}

// Submit sends one bulk mutation. Non-2xx responses return a
// *bulk.SubmitError with the response body as its text.
func (c *Client) Submit(ctx context.Context, kind model.Kind, req model.MutationRequest) (model.MutationResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return model.MutationResult{}, fmt.Errorf("failed to encode mutation: %w", err)
	}
	endpoint := c.baseURL + mutationPath(kind)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.MutationResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"kind":       kind,
		"count":      len(req.EntityIDs),
	})
	log.Info("submitting bulk mutation")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("bulk mutation failed")
		return model.MutationResult{}, &bulk.SubmitError{Text: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.MutationResult{}, &bulk.SubmitError{Status: resp.StatusCode, Text: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("bulk mutation rejected")
		return model.MutationResult{}, &bulk.SubmitError{Status: resp.StatusCode, Text: string(body)}
	}

	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = fmt.Sprintf("Updated %d %ss", len(req.EntityIDs), kind)
	}
	log.Info("bulk mutation applied")
	return model.MutationResult{Message: message}, nil
}

func (c *Client) options(ctx context.Context, path string) ([]model.Option, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, ok := c.array(body, path)
	if !ok {
		return []model.Option{}, nil
	}
	out := make([]model.Option, 0, len(list))
	for _, item := range list {
		out = append(out, model.Option{
			ID:     item.Get("id").Int(),
			Name:   item.Get("name").String(),
			Number: item.Get("number").String(),
			Type:   item.Get("type").String(),
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status for %s: %s", path, resp.Status)
	}
	return body, nil
}

// array returns the elements of a top level JSON array. Anything else is
// logged and treated as an empty list.
func (c *Client) array(body []byte, what string) ([]gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		c.log.WithField("source", what).Warn("malformed response, treating as empty")
		return nil, false
	}
	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		c.log.WithField("source", what).Warn("response is not a list, treating as empty")
		return nil, false
	}
	return res.Array(), true
}

func decodeEntity(kind model.Kind, item gjson.Result) model.Entity {
	e := model.Entity{
		ID:           item.Get("id").Int(),
		Kind:         kind,
		Number:       item.Get("number").String(),
		Suffix:       item.Get("suffix").String(),
		Name:         item.Get("name").String(),
		ParentID:     item.Get("parent_id").Int(),
		AssignedName: item.Get("assigned_name").String(),
		AssignedType: item.Get("assigned_type").String(),
	}
	if v := item.Get("assigned_id"); present(v) {
		id := v.Int()
		e.AssignedID = &id
	}
	class := item.Get("verdict")
	gap := item.Get("gap_percent")
	if present(class) || present(gap) {
		verdict := &model.Verdict{
			Winnable: item.Get("winnable").Bool(),
			Class:    class.String(),
		}
		if present(gap) {
			g := gap.Float()
			verdict.GapPercent = &g
		}
		e.Verdict = verdict
	}
	return e
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func entitiesPath(kind model.Kind, scopeID int64) string {
	if kind == model.KindWard {
		return fmt.Sprintf("/api/localbodies/%d/wards", scopeID)
	}
	return fmt.Sprintf("/api/assemblies/%d/booths", scopeID)
}

func votesPath(kind model.Kind, scopeID int64) string {
	if kind == model.KindWard {
		return fmt.Sprintf("/api/localbodies/%d/ward-votes", scopeID)
	}
	return fmt.Sprintf("/api/assemblies/%d/booth-votes", scopeID)
}

func mutationPath(kind model.Kind) string {
	if kind == model.KindWard {
		return "/api/wards/assembly"
	}
	return "/api/booths/localbody"
}
