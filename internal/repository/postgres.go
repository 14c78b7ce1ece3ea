// Package repository содержит реализацию доступа к данным в PostgreSQL:
// сессии пользователей, журнал аудита и системный журнал.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/repairdesk/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSessionNotFound возвращается, если сессия не найдена или истекла.
var ErrSessionNotFound = model.ErrSessionNotFound

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool        *pgxpool.Pool
	retryDelays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, retryDelays: defaultRetryDelays}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при временных ошибках БД: сбое сериализации, взаимной блокировке
// или обрыве соединения.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := r.retryDelays

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSession сохраняет новую сессию. Пустой идентификатор заменяется сгенерированным UUID.
func (r *PostgresRepository) CreateSession(ctx context.Context, sess *model.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	id, err := uuid.Parse(sess.ID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	return r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO sessions (id, user_id, username, role, access_token, refresh_token, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING created_at`,
			id, sess.UserID, sess.Username, string(sess.Role), sess.AccessToken, sess.RefreshToken, sess.ExpiresAt,
		).Scan(&sess.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// GetSession возвращает действующую сессию по идентификатору.
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var (
		sess model.Session
		role string
		dbID uuid.UUID
	)
	err = r.pool.QueryRow(ctx,
		`SELECT id, user_id, username, role, access_token, refresh_token, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&dbID, &sess.UserID, &sess.Username, &role, &sess.AccessToken, &sess.RefreshToken, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.ID = dbID.String()
	sess.Role = model.Role(role)
	return &sess, nil
}

// SaveSession обновляет токены и срок действия сессии после обновления токена доступа.
func (r *PostgresRepository) SaveSession(ctx context.Context, sess *model.Session) error {
	id, err := uuid.Parse(sess.ID)
	if err != nil {
		return ErrSessionNotFound
	}

	return r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE sessions SET access_token = $2, refresh_token = $3, expires_at = $4 WHERE id = $1`,
			id, sess.AccessToken, sess.RefreshToken, sess.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// DeleteSession удаляет сессию. Удаление отсутствующей сессии не считается ошибкой.
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	return r.withRetry(ctx, func() error {
		if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sid); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// DeleteExpiredSessions удаляет истёкшие сессии и возвращает их количество.
func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
		if err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

// AppendAudit добавляет запись в журнал аудита. Записи журнала не изменяются и не удаляются.
func (r *PostgresRepository) AppendAudit(ctx context.Context, e *model.AuditLogEntry) error {
	return r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO audit_log (actor, action, task_id, old_value, new_value, severity)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, ts`,
			e.Actor, e.Action, e.TaskID.String(), e.OldValue, e.NewValue, e.Severity,
		).Scan(&e.ID, &e.Timestamp)
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		return nil
	})
}

// ListAudit возвращает последние limit записей журнала аудита, новые первыми.
func (r *PostgresRepository) ListAudit(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ts, actor, action, task_id, old_value, new_value, severity
		 FROM audit_log
		 ORDER BY ts DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select audit log: %w", err)
	}
	defer rows.Close()

	res := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		var (
			e      model.AuditLogEntry
			taskID string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &taskID, &e.OldValue, &e.NewValue, &e.Severity); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.TaskID = model.ID(taskID)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AppendSystemLog добавляет запись в системный журнал.
func (r *PostgresRepository) AppendSystemLog(ctx context.Context, e *model.SystemLogEntry) error {
	return r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO system_log (level, source, message) VALUES ($1, $2, $3) RETURNING id, ts`,
			e.Level, e.Source, e.Message,
		).Scan(&e.ID, &e.Timestamp)
		if err != nil {
			return fmt.Errorf("insert system log entry: %w", err)
		}
		return nil
	})
}

// ListSystemLog возвращает последние limit записей системного журнала, новые первыми.
func (r *PostgresRepository) ListSystemLog(ctx context.Context, limit int) ([]model.SystemLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ts, level, source, message
		 FROM system_log
		 ORDER BY ts DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select system log: %w", err)
	}
	defer rows.Close()

	res := make([]model.SystemLogEntry, 0)
	for rows.Next() {
		var e model.SystemLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Source, &e.Message); err != nil {
			return nil, fmt.Errorf("scan system log entry: %w", err)
		}
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
