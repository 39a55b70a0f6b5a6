package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/factlens/backend/internal/storage/models"
	"github.com/factlens/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checks (
		id TEXT PRIMARY KEY,
		input_kind TEXT NOT NULL,
		source_url TEXT,
		summary TEXT NOT NULL,
		verdict TEXT,
		score INTEGER,
		explanation TEXT,
		malformed INTEGER NOT NULL DEFAULT 0,
		raw_response TEXT,
		evidence_count INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checks_created ON checks(created_at);
	CREATE INDEX IF NOT EXISTS idx_checks_verdict ON checks(verdict);

	CREATE TABLE IF NOT EXISTS evidence (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		check_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT,
		snippet TEXT,
		link TEXT,
		FOREIGN KEY (check_id) REFERENCES checks(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_check ON evidence(check_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		check_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (check_id) REFERENCES checks(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_check ON feedback(check_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertCheck(record *models.CheckRecord) error {
	query := `
		INSERT INTO checks (id, input_kind, source_url, summary, verdict, score, explanation,
			malformed, raw_response, evidence_count, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	malformed := 0
	if record.Malformed {
		malformed = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.InputKind,
		record.SourceURL,
		record.Summary,
		record.Verdict,
		record.Score,
		record.Explanation,
		malformed,
		record.RawResponse,
		record.EvidenceCount,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}

	logger.Info("Check recorded",
		zap.String("check_id", record.ID),
		zap.String("verdict", record.Verdict),
		zap.Int("evidence_count", record.EvidenceCount),
	)

	return nil
}

func (c *Client) InsertEvidence(row *models.EvidenceRow) error {
	query := `INSERT INTO evidence (check_id, position, title, snippet, link) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.Exec(query, row.CheckID, row.Position, row.Title, row.Snippet, row.Link)
	if err != nil {
		return fmt.Errorf("failed to insert evidence: %w", err)
	}

	return nil
}

func (c *Client) GetCheck(id string) (*models.CheckRecord, error) {
	query := `
		SELECT id, input_kind, source_url, summary, verdict, score, explanation,
			malformed, raw_response, evidence_count, latency_ms, created_at
		FROM checks WHERE id = ?
	`

	var record models.CheckRecord
	var malformed int
	var createdAt int64

	err := c.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.InputKind,
		&record.SourceURL,
		&record.Summary,
		&record.Verdict,
		&record.Score,
		&record.Explanation,
		&malformed,
		&record.RawResponse,
		&record.EvidenceCount,
		&record.LatencyMS,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	record.Malformed = malformed == 1
	record.CreatedAt = time.Unix(createdAt, 0)

	return &record, nil
}

func (c *Client) GetRecentChecks(limit int) ([]models.CheckRecord, error) {
	query := `
		SELECT id, input_kind, source_url, summary, verdict, score, explanation,
			malformed, evidence_count, latency_ms, created_at
		FROM checks
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent checks: %w", err)
	}
	defer rows.Close()

	var records []models.CheckRecord
	for rows.Next() {
		var r models.CheckRecord
		var malformed int
		var createdAt int64

		err := rows.Scan(
			&r.ID,
			&r.InputKind,
			&r.SourceURL,
			&r.Summary,
			&r.Verdict,
			&r.Score,
			&r.Explanation,
			&malformed,
			&r.EvidenceCount,
			&r.LatencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Malformed = malformed == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) GetEvidence(checkID string) ([]models.EvidenceRow, error) {
	query := `SELECT id, check_id, position, title, snippet, link FROM evidence WHERE check_id = ? ORDER BY position`

	rows, err := c.db.Query(query, checkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}
	defer rows.Close()

	var records []models.EvidenceRow
	for rows.Next() {
		var r models.EvidenceRow
		if err := rows.Scan(&r.ID, &r.CheckID, &r.Position, &r.Title, &r.Snippet, &r.Link); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) InsertFeedback(row *models.FeedbackRow) error {
	query := `INSERT INTO feedback (check_id, rating, created_at) VALUES (?, ?, ?)`

	_, err := c.db.Exec(query, row.CheckID, row.Rating, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	logger.Info("Feedback recorded",
		zap.String("check_id", row.CheckID),
		zap.Int("rating", row.Rating),
	)

	return nil
}
