// Package archive persists produced reports in SQLite. Report bodies are
// stored as zstd-compressed JSON next to a small queryable summary.
package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
)

var (
	ErrDuplicate = errors.New("duplicate")
	ErrNotFound  = errors.New("not found")
)

type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Entry is the summary row of an archived report.
type Entry struct {
	ReportID        string    `json:"report_id"`
	SourceName      string    `json:"source_name"`
	ContentSHA256   string    `json:"content_sha256"`
	FilterKey       string    `json:"filter_key"`
	Success         bool      `json:"success"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	MapName         string    `json:"map_name"`
	DurationSeconds uint32    `json:"duration_seconds"`
	PlayerCount     int       `json:"player_count"`
	MatchHistoryID  *string   `json:"matchhistory_id,omitempty"`
	GameVersion     *uint16   `json:"game_version,omitempty"`
	GameType        *string   `json:"game_type,omitempty"`
	PayloadBytes    int       `json:"payload_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// CommandCount is the per-player, per-category tally of an archived report.
type CommandCount struct {
	PlayerID    uint32                `json:"player_id"`
	CommandType model.CommandCategory `json:"command_type"`
	Total       int                   `json:"total"`
	Filtered    int                   `json:"filtered"`
}

type SaveInput struct {
	SourceName string
	// Content is the raw replay input; its digest deduplicates saves.
	Content   []byte
	Policy    filter.Policy
	Report    model.ReplayReport
	CreatedAt time.Time
}

type ListOptions struct {
	Limit       int
	Offset      int
	SuccessOnly bool
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close() //nolint:errcheck
		db.Close()  //nolint:errcheck
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// OpenAndMigrate opens path and applies pending migrations.
func OpenAndMigrate(ctx context.Context, path string) (*Store, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, s.db); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.enc != nil {
		s.enc.Close() //nolint:errcheck
	}
	if s.dec != nil {
		s.dec.Close()
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// FilterKey is the canonical storage key of a policy.
func FilterKey(p filter.Policy) string {
	cats := p.Categories()
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, string(c))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

func ContentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Save archives a report. Saving the same content under the same policy twice
// returns the existing entry together with ErrDuplicate.
func (s *Store) Save(ctx context.Context, in SaveInput) (Entry, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	digest := ContentDigest(in.Content)
	key := FilterKey(in.Policy)

	if existing, err := s.duplicateOf(ctx, digest, key); !errors.Is(err, ErrNotFound) {
		return existing, err
	}

	body, err := json.Marshal(in.Report)
	if err != nil {
		return Entry{}, fmt.Errorf("encode report: %w", err)
	}
	payload := s.enc.EncodeAll(body, make([]byte, 0, len(body)/4))

	r := in.Report
	entry := Entry{
		ReportID:        uuid.NewString(),
		SourceName:      in.SourceName,
		ContentSHA256:   digest,
		FilterKey:       key,
		Success:         r.Success,
		ErrorMessage:    r.ErrorMessage,
		MapName:         r.MapName,
		DurationSeconds: r.DurationSeconds,
		PlayerCount:     len(r.Players),
		MatchHistoryID:  r.MatchHistoryID,
		GameVersion:     r.GameVersion,
		GameType:        r.GameType,
		PayloadBytes:    len(body),
		CreatedAt:       in.CreatedAt.UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin save tx: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO reports(report_id, source_name, content_sha256, filter_key, success, error_message, map_name,
	duration_seconds, player_count, matchhistory_id, payload, payload_bytes, created_at, game_version, game_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ReportID, entry.SourceName, entry.ContentSHA256, entry.FilterKey, boolToInt(entry.Success),
		nullableStr(entry.ErrorMessage), entry.MapName, int64(entry.DurationSeconds), entry.PlayerCount,
		nullableStr(entry.MatchHistoryID), payload, entry.PayloadBytes, ts(entry.CreatedAt),
		nullableU16(entry.GameVersion), nullableStr(entry.GameType),
	)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		if isUniqueErr(err) {
			// A concurrent save of the same content won the insert.
			return s.duplicateOf(ctx, digest, key)
		}
		return Entry{}, fmt.Errorf("insert report: %w", err)
	}

	for _, p := range r.Players {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO report_players(report_id, player_id, player_name, team_id, faction, is_human)
VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ReportID, int64(p.PlayerID), p.PlayerName, int64(p.TeamID), nullableStr(p.Faction), boolToInt(p.IsHuman),
		); err != nil {
			tx.Rollback() //nolint:errcheck
			return Entry{}, fmt.Errorf("insert report player: %w", err)
		}
		for _, c := range countCommands(p) {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO report_command_counts(report_id, player_id, command_type, total, filtered)
VALUES (?, ?, ?, ?, ?)`,
				entry.ReportID, int64(p.PlayerID), string(c.CommandType), c.Total, c.Filtered,
			); err != nil {
				tx.Rollback() //nolint:errcheck
				return Entry{}, fmt.Errorf("insert command count: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit save tx: %w", err)
	}
	return entry, nil
}

// duplicateOf returns the stored entry for digest and key with ErrDuplicate,
// or ErrNotFound when there is none.
func (s *Store) duplicateOf(ctx context.Context, digest, key string) (Entry, error) {
	existing, err := s.FindByContent(ctx, digest, key)
	if err != nil {
		return Entry{}, err
	}
	return existing, ErrDuplicate
}

const entryColumns = `report_id, source_name, content_sha256, filter_key, success, error_message, map_name,
	duration_seconds, player_count, matchhistory_id, payload_bytes, created_at, game_version, game_type`

func (s *Store) Get(ctx context.Context, reportID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM reports WHERE report_id = ?`, reportID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get report: %w", err)
	}
	return entry, nil
}

func (s *Store) FindByContent(ctx context.Context, digest, filterKey string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM reports WHERE content_sha256 = ? AND filter_key = ?`, digest, filterKey)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("find report: %w", err)
	}
	return entry, nil
}

// Report returns the full archived report.
func (s *Store) Report(ctx context.Context, reportID string) (model.ReplayReport, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE report_id = ?`, reportID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ReplayReport{}, ErrNotFound
		}
		return model.ReplayReport{}, fmt.Errorf("read report payload: %w", err)
	}
	body, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return model.ReplayReport{}, fmt.Errorf("decompress report: %w", err)
	}
	var report model.ReplayReport
	if err := json.Unmarshal(body, &report); err != nil {
		return model.ReplayReport{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	query := `SELECT ` + entryColumns + ` FROM reports`
	if opts.SuccessOnly {
		query += ` WHERE success = 1`
	}
	query += ` ORDER BY created_at DESC, report_id ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func (s *Store) CommandCounts(ctx context.Context, reportID string) ([]CommandCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT player_id, command_type, total, filtered
FROM report_command_counts
WHERE report_id = ?
ORDER BY player_id ASC, command_type ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list command counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []CommandCount{}
	for rows.Next() {
		var c CommandCount
		var commandType string
		if err := rows.Scan(&c.PlayerID, &commandType, &c.Total, &c.Filtered); err != nil {
			return nil, fmt.Errorf("scan command count: %w", err)
		}
		c.CommandType = model.CommandCategory(commandType)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command counts: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, reportID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE report_id = ?`, reportID)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeBefore deletes reports created before cutoff and returns how many went.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, ts(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows %s: %w", table, err)
	}
	return count, nil
}

func countCommands(p model.Player) []CommandCount {
	total := map[model.CommandCategory]int{}
	filtered := map[model.CommandCategory]int{}
	for _, c := range p.Commands {
		total[c.CommandType]++
	}
	for _, c := range p.BuildCommands {
		filtered[c.CommandType]++
	}
	var out []CommandCount
	for _, cat := range model.AllCategories() {
		if total[cat] == 0 && filtered[cat] == 0 {
			continue
		}
		out = append(out, CommandCount{PlayerID: p.PlayerID, CommandType: cat, Total: total[cat], Filtered: filtered[cat]})
	}
	return out
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		e           Entry
		success     int
		errMsg      sql.NullString
		matchID     sql.NullString
		createdAt   string
		gameVersion sql.NullInt64
		gameType    sql.NullString
	)
	if err := scanner.Scan(
		&e.ReportID, &e.SourceName, &e.ContentSHA256, &e.FilterKey, &success, &errMsg, &e.MapName,
		&e.DurationSeconds, &e.PlayerCount, &matchID, &e.PayloadBytes, &createdAt, &gameVersion, &gameType,
	); err != nil {
		return Entry{}, err
	}
	e.Success = success == 1
	if errMsg.Valid {
		v := errMsg.String
		e.ErrorMessage = &v
	}
	if matchID.Valid {
		v := matchID.String
		e.MatchHistoryID = &v
	}
	if gameVersion.Valid {
		v := uint16(gameVersion.Int64)
		e.GameVersion = &v
	}
	if gameType.Valid {
		v := gameType.String
		e.GameType = &v
	}
	t, err := parseTS(createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableU16(v *uint16) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

// tsLayout keeps a fixed fraction width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg,
		"UNIQUE constraint failed",
		"constraint failed: UNIQUE",
	)
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
