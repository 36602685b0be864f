package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: *HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL,
// authenticating with the given API key.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, dest any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) GetInstance(ctx context.Context, id uuid.UUID) (*models.WorkoutInstanceRow, error) {
	var inst models.WorkoutInstanceRow
	if err := c.get(ctx, "/api/v1/instances/"+id.String(), nil, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (c *HTTPClient) ListAthleteInstances(ctx context.Context, athleteID uuid.UUID, from, to time.Time) ([]models.WorkoutInstanceRow, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var instances []models.WorkoutInstanceRow
	if err := c.get(ctx, "/api/v1/athletes/"+athleteID.String()+"/instances", params, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (c *HTTPClient) ListMaxHistory(ctx context.Context, athleteID uuid.UUID, exerciseID *uuid.UUID) ([]models.AthleteMaxRow, error) {
	params := url.Values{}
	if exerciseID != nil {
		params.Set("exercise_id", exerciseID.String())
	}

	var maxes []models.AthleteMaxRow
	if err := c.get(ctx, "/api/v1/athletes/"+athleteID.String()+"/maxes", params, &maxes); err != nil {
		return nil, err
	}
	return maxes, nil
}

func (c *HTTPClient) ListExerciseHistory(ctx context.Context, athleteID, exerciseID uuid.UUID, limit int) ([]models.ExerciseLogRow, error) {
	params := url.Values{}
	params.Set("exercise_id", exerciseID.String())
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var logs []models.ExerciseLogRow
	if err := c.get(ctx, "/api/v1/athletes/"+athleteID.String()+"/logs", params, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) GetProgram(ctx context.Context, workoutID uuid.UUID) (*models.Program, error) {
	var program models.Program
	if err := c.get(ctx, "/api/v1/workouts/"+workoutID.String()+"/program", nil, &program); err != nil {
		return nil, err
	}
	return &program, nil
}
