package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// completionCooldown is how long after a completed training a member must wait.
const completionCooldown = 7 * 24 * time.Hour

// SQLiteTrainingStore implements TrainingStore backed by SQLite.
//
// The database allows a single open connection, so every query finishes
// reading its rows before the next one is issued.
type SQLiteTrainingStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteTrainingStore returns a new SQLiteTrainingStore.
func NewSQLiteTrainingStore(db *sql.DB) *SQLiteTrainingStore {
	return &SQLiteTrainingStore{db: db, now: time.Now}
}

// WithClock replaces the time source used for timestamps and the completion cooldown.
func (s *SQLiteTrainingStore) WithClock(now func() time.Time) *SQLiteTrainingStore {
	s.now = now
	return s
}

func (s *SQLiteTrainingStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// --- users ---

const userColumns = `id, name, email, division, subdivision, rating, atc_active, personal_email, work_email, notify_newreq`

func scanUser(row interface{ Scan(...any) error }) (*training.User, error) {
	var (
		u                       training.User
		subdiv, personal, work  sql.NullString
		atcActive, notifyNewReq int
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Division, &subdiv, &u.Rating,
		&atcActive, &personal, &work, &notifyNewReq); err != nil {
		return nil, err
	}
	u.Subdivision = stringPtr(subdiv)
	u.PersonalEmail = stringPtr(personal)
	u.WorkEmail = stringPtr(work)
	u.AtcActive = atcActive != 0
	u.NotifyNewRequest = notifyNewReq != 0
	return &u, nil
}

// FindUser returns the user with permissions loaded.
func (s *SQLiteTrainingStore) FindUser(ctx context.Context, id int64) (*training.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}
	if u.Permissions, err = s.permissions(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteTrainingStore) permissions(ctx context.Context, userID int64) ([]training.Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, area_id FROM permissions WHERE user_id = ? ORDER BY group_id, area_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying permissions for user %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var perms []training.Permission
	for rows.Next() {
		var p training.Permission
		if err := rows.Scan(&p.Group, &p.AreaID); err != nil {
			return nil, fmt.Errorf("scanning permission row: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permission rows: %w", err)
	}
	return perms, nil
}

// UpsertUser inserts or replaces a user and its permissions.
func (s *SQLiteTrainingStore) UpsertUser(ctx context.Context, u *training.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			division = excluded.division,
			subdivision = excluded.subdivision,
			rating = excluded.rating,
			atc_active = excluded.atc_active,
			personal_email = excluded.personal_email,
			work_email = excluded.work_email,
			notify_newreq = excluded.notify_newreq`,
		u.ID, u.Name, u.Email, u.Division, nullString(u.Subdivision), u.Rating,
		boolToInt(u.AtcActive), nullString(u.PersonalEmail), nullString(u.WorkEmail),
		boolToInt(u.NotifyNewRequest),
	)
	if err != nil {
		return fmt.Errorf("upserting user %d: %w", u.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM permissions WHERE user_id = ?`, u.ID); err != nil {
		return fmt.Errorf("clearing permissions for user %d: %w", u.ID, err)
	}
	for _, p := range u.Permissions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO permissions (user_id, area_id, group_id) VALUES (?, ?, ?)`,
			u.ID, p.AreaID, p.Group); err != nil {
			return fmt.Errorf("inserting permission for user %d: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// ListUsersWithGroup returns users holding maxGroup or a more privileged group in any area.
func (s *SQLiteTrainingStore) ListUsersWithGroup(ctx context.Context, maxGroup training.Group) ([]*training.User, error) {
	ids, err := s.queryIDs(ctx,
		`SELECT DISTINCT user_id FROM permissions WHERE group_id <= ? ORDER BY user_id`, maxGroup)
	if err != nil {
		return nil, fmt.Errorf("listing users with group <= %d: %w", maxGroup, err)
	}
	users := make([]*training.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.FindUser(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// IsAtcActive reports whether the user is flagged active as a controller.
func (s *SQLiteTrainingStore) IsAtcActive(ctx context.Context, userID int64) (bool, error) {
	var active int
	err := s.db.QueryRowContext(ctx, `SELECT atc_active FROM users WHERE id = ?`, userID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("querying ATC activity for user %d: %w", userID, err)
	}
	return active != 0, nil
}

// --- areas and ratings ---

// FindArea returns the area with the given id.
func (s *SQLiteTrainingStore) FindArea(ctx context.Context, id int64) (*training.Area, error) {
	var (
		a                                            training.Area
		contact, waiting, newReq, preTraining, exams sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact, waiting_time, template_newreq, template_pretraining, template_waitingexam
		FROM areas WHERE id = ?`, id).Scan(
		&a.ID, &a.Name, &contact, &waiting, &newReq, &preTraining, &exams)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("area %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying area %d: %w", id, err)
	}
	a.Contact = stringPtr(contact)
	a.WaitingTime = stringPtr(waiting)
	a.TemplateNewRequest = stringPtr(newReq)
	a.TemplatePreTraining = stringPtr(preTraining)
	a.TemplateWaitingExam = stringPtr(exams)
	return &a, nil
}

// UpsertArea inserts or replaces an area.
func (s *SQLiteTrainingStore) UpsertArea(ctx context.Context, a *training.Area) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO areas (id, name, contact, waiting_time, template_newreq, template_pretraining, template_waitingexam)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			contact = excluded.contact,
			waiting_time = excluded.waiting_time,
			template_newreq = excluded.template_newreq,
			template_pretraining = excluded.template_pretraining,
			template_waitingexam = excluded.template_waitingexam`,
		a.ID, a.Name, nullString(a.Contact), nullString(a.WaitingTime),
		nullString(a.TemplateNewRequest), nullString(a.TemplatePreTraining), nullString(a.TemplateWaitingExam),
	)
	if err != nil {
		return fmt.Errorf("upserting area %d: %w", a.ID, err)
	}
	return nil
}

// UpsertRating inserts or replaces a rating.
func (s *SQLiteTrainingStore) UpsertRating(ctx context.Context, r training.Rating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, r.ID, r.Name)
	if err != nil {
		return fmt.Errorf("upserting rating %d: %w", r.ID, err)
	}
	return nil
}

// --- trainings ---

const trainingColumns = `id, user_id, area_id, status, pre_training_completed, created_at, closed_at`

func scanTraining(row interface{ Scan(...any) error }) (*training.Training, error) {
	var (
		t        training.Training
		done     int
		closedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.AreaID, &t.Status, &done, &t.CreatedAt, &closedAt); err != nil {
		return nil, err
	}
	t.PreTrainingCompleted = done != 0
	if closedAt.Valid {
		ts := closedAt.Time
		t.ClosedAt = &ts
	}
	return &t, nil
}

// FindTraining returns the training with its user, area, ratings and mentors loaded.
func (s *SQLiteTrainingStore) FindTraining(ctx context.Context, id int64) (*training.Training, error) {
	t, err := scanTraining(s.db.QueryRowContext(ctx, `SELECT `+trainingColumns+` FROM trainings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("training %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying training %d: %w", id, err)
	}

	if t.User, err = s.FindUser(ctx, t.UserID); err != nil {
		return nil, err
	}
	if t.Area, err = s.FindArea(ctx, t.AreaID); err != nil {
		return nil, err
	}
	if t.Ratings, err = s.ratings(ctx, t.ID); err != nil {
		return nil, err
	}
	if t.Mentors, err = s.mentors(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListUserTrainings returns the user's trainings with ratings loaded.
func (s *SQLiteTrainingStore) ListUserTrainings(ctx context.Context, userID int64, statuses ...training.Status) ([]*training.Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE user_id = ?`
	args := []any{userID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, int(st))
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trainings for user %d: %w", userID, err)
	}
	var list []*training.Training
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning training row: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating training rows: %w", err)
	}
	_ = rows.Close()

	for _, t := range list {
		if t.Ratings, err = s.ratings(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *SQLiteTrainingStore) ratings(ctx context.Context, trainingID int64) ([]training.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name FROM ratings r
		JOIN training_ratings tr ON tr.rating_id = r.id
		WHERE tr.training_id = ?
		ORDER BY r.id`, trainingID)
	if err != nil {
		return nil, fmt.Errorf("querying ratings for training %d: %w", trainingID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []training.Rating
	for rows.Next() {
		var r training.Rating
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning rating row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteTrainingStore) mentors(ctx context.Context, trainingID int64) ([]training.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("u.", userColumns)+` FROM users u
		JOIN training_mentors m ON m.user_id = u.id
		WHERE m.training_id = ?
		ORDER BY u.id`, trainingID)
	if err != nil {
		return nil, fmt.Errorf("querying mentors for training %d: %w", trainingID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []training.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mentor row: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CreateTraining inserts a training with its ratings and returns its id.
func (s *SQLiteTrainingStore) CreateTraining(ctx context.Context, in NewTraining) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin training insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO trainings (user_id, area_id, status, pre_training_completed, created_at)
		VALUES (?, ?, ?, 0, ?)`, in.UserID, in.AreaID, int(in.Status), s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("inserting training: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading training id: %w", err)
	}
	for _, rid := range in.RatingIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO training_ratings (training_id, rating_id) VALUES (?, ?)`, id, rid); err != nil {
			return 0, fmt.Errorf("attaching rating %d: %w", rid, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit training insert: %w", err)
	}
	return id, nil
}

// UpdateStatus sets a training's status. Terminal statuses stamp closed_at.
func (s *SQLiteTrainingStore) UpdateStatus(ctx context.Context, id int64, status training.Status) error {
	var closedAt any
	if status.IsTerminal() {
		closedAt = s.timestamp()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE trainings SET status = ?, closed_at = ? WHERE id = ?`, int(status), closedAt, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("training %d to %s: %w", id, status, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating status of training %d: %w", id, err)
	}
	return expectOneRow(res, "training", id)
}

// SetPreTrainingCompleted sets the pre-training completed flag.
func (s *SQLiteTrainingStore) SetPreTrainingCompleted(ctx context.Context, id int64, done bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trainings SET pre_training_completed = ? WHERE id = ?`, boolToInt(done), id)
	if err != nil {
		return fmt.Errorf("updating pre-training flag of training %d: %w", id, err)
	}
	return expectOneRow(res, "training", id)
}

// AssignMentor adds a mentor to a training.
func (s *SQLiteTrainingStore) AssignMentor(ctx context.Context, trainingID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO training_mentors (training_id, user_id) VALUES (?, ?)`, trainingID, userID)
	if err != nil {
		return fmt.Errorf("assigning mentor %d to training %d: %w", userID, trainingID, err)
	}
	return nil
}

// HasTrainingInStatus reports whether the user owns a training in status.
func (s *SQLiteTrainingStore) HasTrainingInStatus(ctx context.Context, userID int64, status training.Status) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM trainings WHERE user_id = ? AND status = ?)`, userID, int(status))
}

// HasRecentlyCompletedTraining reports whether the user completed a training in the last 7 days.
func (s *SQLiteTrainingStore) HasRecentlyCompletedTraining(ctx context.Context, userID int64) (bool, error) {
	since := s.timestamp().Add(-completionCooldown)
	return s.exists(ctx, `
		SELECT EXISTS(SELECT 1 FROM trainings
		WHERE user_id = ? AND status = ? AND closed_at IS NOT NULL AND closed_at >= ?)`,
		userID, int(training.StatusCompleted), since)
}

// HasActiveTrainings reports whether the user has any non-terminal training.
func (s *SQLiteTrainingStore) HasActiveTrainings(ctx context.Context, userID int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM trainings WHERE user_id = ? AND status >= ?)`,
		userID, int(training.StatusInQueue))
}

func (s *SQLiteTrainingStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("querying trainings: %w", err)
	}
	return found != 0, nil
}

func (s *SQLiteTrainingStore) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func expectOneRow(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", resource, id, ErrNotFound)
	}
	return nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}

// isUniqueViolation reports whether err is sqlite rejecting a duplicate key,
// such as a second active training for the same user.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
