// liftlog-promote replays a completed workout instance's persisted
// logs through the max promotion rules. Useful when a session
// completed with ledger write failures, or after importing historical
// logs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	instanceStr := flag.String("instance", "", "workout instance UUID (defaults to the athlete's latest completed)")
	athleteStr := flag.String("athlete", "", "athlete UUID, used when -instance is not set")
	dryRun := flag.Bool("dry-run", false, "report promotions without writing ledger rows")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *instanceStr == "" && *athleteStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: liftlog-promote -config config.yaml [-instance <uuid> | -athlete <uuid>] [-dry-run]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	instance, err := resolveInstance(ctx, db, *instanceStr, *athleteStr)
	if err != nil {
		log.Error("failed to resolve instance", "error", err)
		os.Exit(1)
	}
	if instance.Status != models.StatusCompleted {
		log.Error("instance is not completed", "instance_id", instance.ID, "status", instance.Status)
		os.Exit(1)
	}

	if *dryRun {
		log.Info("DRY RUN mode — no ledger rows will be written")
	}

	promoted, skipped, err := promote(ctx, db, instance, *dryRun, log)
	if err != nil {
		log.Error("promotion failed", "error", err)
		os.Exit(1)
	}
	log.Info("promotion complete",
		"instance_id", instance.ID,
		"promoted", promoted,
		"skipped", skipped,
	)
}

func resolveInstance(ctx context.Context, db *storage.DB, instanceStr, athleteStr string) (*models.WorkoutInstanceRow, error) {
	if instanceStr != "" {
		id, err := uuid.Parse(instanceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid instance id: %w", err)
		}
		return db.GetInstance(ctx, id)
	}
	athleteID, err := uuid.Parse(athleteStr)
	if err != nil {
		return nil, fmt.Errorf("invalid athlete id: %w", err)
	}
	return db.LatestCompletedInstance(ctx, athleteID)
}

// promote scans the instance's logs per tracked metric and appends
// ledger rows for values that beat the athlete's standing max.
func promote(ctx context.Context, db *storage.DB, instance *models.WorkoutInstanceRow, dryRun bool, log *slog.Logger) (promoted, skipped int, err error) {
	program, err := db.GetProgram(ctx, instance.WorkoutID)
	if err != nil {
		return 0, 0, fmt.Errorf("loading program: %w", err)
	}
	logs, err := db.ListInstanceLogs(ctx, instance.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("loading logs: %w", err)
	}

	byExercise := map[uuid.UUID][]models.ExerciseLogRow{}
	for _, l := range logs {
		byExercise[l.RoutineExerciseID] = append(byExercise[l.RoutineExerciseID], l)
	}

	achievedOn := instance.ScheduledDate
	if instance.CompletedAt != nil {
		t := *instance.CompletedAt
		achievedOn = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	for _, re := range program.FlatExercises() {
		if re.ExerciseID == nil || len(re.TrackedMaxMetrics) == 0 {
			continue
		}
		rows := byExercise[re.ID]
		if len(rows) == 0 {
			continue
		}

		for _, metricID := range re.TrackedMaxMetrics {
			best := session.BestLogValue(rows, metricID)
			if best <= 0 {
				continue
			}

			cur, err := db.CurrentMax(ctx, instance.AthleteID, *re.ExerciseID, metricID)
			if err != nil {
				return promoted, skipped, fmt.Errorf("reading current max: %w", err)
			}
			if cur != nil && best <= cur.MaxValue {
				log.Info("skipping, does not beat current max",
					"exercise_id", *re.ExerciseID, "metric", metricID,
					"value", best, "current", cur.MaxValue)
				skipped++
				continue
			}

			log.Info("promoting max",
				"exercise_id", *re.ExerciseID, "metric", metricID, "value", best)
			if !dryRun {
				row := models.AthleteMaxRow{
					ID:         uuid.New(),
					AthleteID:  instance.AthleteID,
					ExerciseID: *re.ExerciseID,
					MetricID:   metricID,
					MaxValue:   best,
					RepsAtMax:  1,
					AchievedOn: achievedOn,
					Source:     models.MaxSourceLogged,
				}
				if err := db.AppendMax(ctx, &row); err != nil {
					return promoted, skipped, fmt.Errorf("appending max: %w", err)
				}
			}
			promoted++
		}
	}
	return promoted, skipped, nil
}
