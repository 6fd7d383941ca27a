package interaction

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pkg/sqlitedb"
)

// Schema 是互动日志表。seq 自增主键即插入顺序。
const Schema = `
CREATE TABLE IF NOT EXISTS interactions (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	id                    TEXT NOT NULL UNIQUE,
	user_id               TEXT NOT NULL,
	activity_id           TEXT NOT NULL,
	type                  TEXT NOT NULL,
	rating                REAL,
	view_duration_seconds REAL,
	completion_ratio      REAL,
	emotion_label         TEXT,
	emotion_intensity     REAL,
	ts                    INTEGER NOT NULL,
	time_of_day           TEXT NOT NULL,
	day_of_week           INTEGER NOT NULL,
	annotations           BLOB
);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, activity_id, seq);
`

// SQLiteLog 是 SQLite 实现的持久化互动日志。
// 每条事件单独一条 INSERT，失败时整条不写入。
type SQLiteLog struct {
	db   *sql.DB
	opts options
}

// OpenSQLiteLog 打开数据库文件（或 ":memory:"）并建表。
func OpenSQLiteLog(dsn string, opts ...Option) (*SQLiteLog, error) {
	db, err := sqlitedb.Open(dsn, Schema)
	if err != nil {
		return nil, err
	}
	return &SQLiteLog{db: db, opts: newOptions(opts)}, nil
}

// NewSQLiteLog 复用已打开的连接，调用方负责执行 Schema。
func NewSQLiteLog(db *sql.DB, opts ...Option) *SQLiteLog {
	return &SQLiteLog{db: db, opts: newOptions(opts)}
}

var _ core.InteractionLog = (*SQLiteLog)(nil)

func (l *SQLiteLog) Close() error { return l.db.Close() }

func (l *SQLiteLog) Record(ctx context.Context, in core.Interaction) (string, error) {
	if err := l.opts.prepare(ctx, &in); err != nil {
		return "", err
	}

	var (
		viewSeconds, completion sql.NullFloat64
		emotionLabel            sql.NullString
		emotionIntensity        sql.NullFloat64
		rating                  sql.NullFloat64
	)
	if in.Rating != nil {
		rating = sql.NullFloat64{Float64: *in.Rating, Valid: true}
	}
	if d := in.Duration; d != nil {
		viewSeconds = sql.NullFloat64{Float64: d.ViewDurationSeconds, Valid: true}
		completion = sql.NullFloat64{Float64: d.CompletionRatio, Valid: true}
	}
	if e := in.Emotion; e != nil {
		emotionLabel = sql.NullString{String: e.Label, Valid: true}
		emotionIntensity = sql.NullFloat64{Float64: e.Intensity, Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO interactions (
			id, user_id, activity_id, type, rating,
			view_duration_seconds, completion_ratio, emotion_label, emotion_intensity,
			ts, time_of_day, day_of_week, annotations
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.ActivityID, string(in.Type), rating,
		viewSeconds, completion, emotionLabel, emotionIntensity,
		in.Timestamp.UnixNano(), in.TimeOfDay, int(in.DayOfWeek), []byte(in.Annotations),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", core.NewValidationError(core.ModuleInteraction, "duplicate interaction id %q", in.ID)
		}
		return "", core.NewUnavailableError(core.ModuleInteraction, "insert interaction", err)
	}
	return in.ID, nil
}

const selectColumns = `
	SELECT id, user_id, activity_id, type, rating,
	       view_duration_seconds, completion_ratio, emotion_label, emotion_intensity,
	       ts, time_of_day, day_of_week, annotations
	FROM interactions`

func (l *SQLiteLog) Query(ctx context.Context, q core.InteractionQuery) ([]core.Interaction, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	clauses := []string{"user_id = ?"}
	args := []any{q.UserID}
	if q.ActivityID != "" {
		clauses = append(clauses, "activity_id = ?")
		args = append(args, q.ActivityID)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, q.Since.UnixNano())
	}

	var out []core.Interaction
	err := l.each(ctx, selectColumns+" WHERE "+strings.Join(clauses, " AND ")+" ORDER BY seq", args, func(in core.Interaction) error {
		out = append(out, in)
		return nil
	})
	return out, err
}

func (l *SQLiteLog) Scan(ctx context.Context, fn func(core.Interaction) error) error {
	return l.each(ctx, selectColumns+" ORDER BY seq", nil, fn)
}

func (l *SQLiteLog) each(ctx context.Context, query string, args []any, fn func(core.Interaction) error) error {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.NewUnavailableError(core.ModuleInteraction, "query interactions", err)
	}
	defer rows.Close()

	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return err
		}
		if err := fn(in); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return core.NewUnavailableError(core.ModuleInteraction, "iterate interactions", err)
	}
	return nil
}

func scanInteraction(rows *sql.Rows) (core.Interaction, error) {
	var (
		in                      core.Interaction
		typ                     string
		rating                  sql.NullFloat64
		viewSeconds, completion sql.NullFloat64
		emotionLabel            sql.NullString
		emotionIntensity        sql.NullFloat64
		ts                      int64
		dayOfWeek               int
		annotations             []byte
	)
	err := rows.Scan(
		&in.ID, &in.UserID, &in.ActivityID, &typ, &rating,
		&viewSeconds, &completion, &emotionLabel, &emotionIntensity,
		&ts, &in.TimeOfDay, &dayOfWeek, &annotations,
	)
	if err != nil {
		return core.Interaction{}, fmt.Errorf("scan interaction: %w", err)
	}

	in.Type = core.InteractionType(typ)
	in.Timestamp = time.Unix(0, ts).UTC()
	in.DayOfWeek = time.Weekday(dayOfWeek)
	if rating.Valid {
		r := rating.Float64
		in.Rating = &r
	}
	if viewSeconds.Valid || completion.Valid {
		in.Duration = &core.DurationMetrics{
			ViewDurationSeconds: viewSeconds.Float64,
			CompletionRatio:     completion.Float64,
		}
	}
	if emotionLabel.Valid {
		in.Emotion = &core.EmotionSignal{Label: emotionLabel.String, Intensity: emotionIntensity.Float64}
	}
	if len(annotations) > 0 {
		in.Annotations = annotations
	}
	return in, nil
}
