package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/lyceum-sms/lyceum-sms/internal/jobs"
)

const (
	// TaskAttendanceDigest recomputes a school's attendance summary for a day.
	TaskAttendanceDigest = "attendance:digest"
)

// AttendanceDigestPayload identifies the school and day to summarise. An empty
// SchoolID means every school, used by the nightly cron run.
type AttendanceDigestPayload struct {
	SchoolID string    `json:"school_id,omitempty"`
	Day      time.Time `json:"day"`
}

// NewAttendanceDigestTask constructs an Asynq task for the digest.
func NewAttendanceDigestTask(schoolID string, day time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(AttendanceDigestPayload{SchoolID: schoolID, Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceDigest, body, asynq.Queue(QueueDefault)), nil
}

// AttendanceDigestJob aggregates attendance records into per-school daily
// summaries that the reports endpoints read from.
type AttendanceDigestJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAttendanceDigestJob initialises the digest handler.
func NewAttendanceDigestJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AttendanceDigestJob {
	return &AttendanceDigestJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the digest aggregation.
func (j *AttendanceDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("attendance digest: handler not configured")
	}
	var payload AttendanceDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Day.IsZero() {
		// The cron run carries no day; summarise yesterday.
		payload.Day = j.now().AddDate(0, 0, -1)
	}
	day := payload.Day.Truncate(24 * time.Hour)

	tracker := j.metrics().Track(TaskAttendanceDigest)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("school_id", payload.SchoolID),
		slog.String("day", day.Format("2006-01-02")),
	)
	logger.Info("starting attendance digest")

	schools, resultErr := j.aggregate(ctx, payload.SchoolID, day)
	if resultErr != nil {
		logger.Error("digest failed", slog.Any("error", resultErr))
		return resultErr
	}

	logger.Info("completed attendance digest", slog.Int("schools", schools))
	return resultErr
}

func (j *AttendanceDigestJob) aggregate(ctx context.Context, schoolID string, day time.Time) (int, error) {
	if j.Pool == nil {
		return 0, errors.New("attendance digest: pool not configured")
	}

	query := `
		SELECT school_id,
		       COUNT(*) FILTER (WHERE status = 'present') AS present,
		       COUNT(*) FILTER (WHERE status = 'absent')  AS absent,
		       COUNT(*) FILTER (WHERE status = 'late')    AS late,
		       COUNT(*) FILTER (WHERE status = 'excused') AS excused
		FROM attendance_records
		WHERE date = $1`
	args := []any{day}
	if schoolID != "" {
		query += ` AND school_id = $2`
		args = append(args, schoolID)
	}
	query += ` GROUP BY school_id`

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type digest struct {
		schoolID                       string
		present, absent, late, excused int
	}
	var digests []digest
	for rows.Next() {
		var d digest
		if err := rows.Scan(&d.schoolID, &d.present, &d.absent, &d.late, &d.excused); err != nil {
			return 0, err
		}
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, d := range digests {
		_, err := j.Pool.Exec(ctx, `
			INSERT INTO attendance_digests (school_id, day, present, absent, late, excused, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (school_id, day) DO UPDATE
			SET present = EXCLUDED.present, absent = EXCLUDED.absent,
			    late = EXCLUDED.late, excused = EXCLUDED.excused, computed_at = NOW()`,
			d.schoolID, day, d.present, d.absent, d.late, d.excused)
		if err != nil {
			return 0, err
		}
	}
	return len(digests), nil
}

func (j *AttendanceDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAttendanceDigest))
	}
	return slog.Default().With(slog.String("job", TaskAttendanceDigest))
}

func (j *AttendanceDigestJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AttendanceDigestJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
