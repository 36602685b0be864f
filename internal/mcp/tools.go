package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// defaultDateRange returns from/to defaulting to the last 30 days.
func defaultDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if toStr != "" {
		to, err = parseFlexTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.Add(24 * time.Hour)
	} else {
		to = time.Now().Add(24 * time.Hour)
	}

	if fromStr != "" {
		from, err = parseFlexTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		from = to.AddDate(0, 0, -31)
	}

	return from, to, nil
}

// --- Tool definitions ---

var toolGetExerciseLogs = mcp.NewTool("get_exercise_logs",
	mcp.WithDescription("Retrieve an athlete's logged sets for one exercise across sessions, most recent first. Each row includes target and actual reps/weight, custom metric values, and notes."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete UUID")),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
	mcp.WithNumber("limit", mcp.Description("Maximum rows to return. Defaults to 50.")),
)

var toolGetAthleteMaxes = mcp.NewTool("get_athlete_maxes",
	mcp.WithDescription("Retrieve an athlete's personal record history. The ledger is append-only; the first row per metric is the current max."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete UUID")),
	mcp.WithString("exercise_id", mcp.Description("Filter to one exercise UUID")),
)

var toolGetWorkoutProgram = mcp.NewTool("get_workout_program",
	mcp.WithDescription("Retrieve a workout's full program definition: routines, exercises, set counts, metric targets, and intensity percentages."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolListInstances = mcp.NewTool("list_instances",
	mcp.WithDescription("List an athlete's scheduled workout instances in a date range with their lifecycle status."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete UUID")),
	mcp.WithString("from", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("to", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) getExerciseLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := requireUUID(req, "athlete_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseID, err := requireUUID(req, "exercise_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)

	logs, err := h.ds.ListExerciseHistory(ctx, athleteID, exerciseID, limit)
	if err != nil {
		h.log.Error("mcp get_exercise_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getAthleteMaxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := requireUUID(req, "athlete_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var exerciseID *uuid.UUID
	if v := req.GetString("exercise_id", ""); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			return mcp.NewToolResultError("invalid exercise_id"), nil
		}
		exerciseID = &parsed
	}

	maxes, err := h.ds.ListMaxHistory(ctx, athleteID, exerciseID)
	if err != nil {
		h.log.Error("mcp get_athlete_maxes", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(maxes)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workoutID, err := requireUUID(req, "workout_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	program, err := h.ds.GetProgram(ctx, workoutID)
	if err != nil {
		h.log.Error("mcp get_workout_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(program)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listInstances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := requireUUID(req, "athlete_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	from, to, err := defaultDateRange(req.GetString("from", ""), req.GetString("to", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	instances, err := h.ds.ListAthleteInstances(ctx, athleteID, from, to)
	if err != nil {
		h.log.Error("mcp list_instances", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(instances)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func requireUUID(req mcp.CallToolRequest, param string) (uuid.UUID, error) {
	s, err := req.RequireString(param)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
