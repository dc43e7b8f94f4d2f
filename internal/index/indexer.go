package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"client-chat/internal/conversation"
)

// Index mirrors appended messages into an in-process SQLite database for
// cross-channel search. Nothing is written to disk.
type Index struct {
	db         *sql.DB
	ftsEnabled bool
	mu         sync.Mutex
}

func Open() (*Index, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	i := &Index{db: db}
	if err := i.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return i, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}

// FTS reports whether the sqlite build supports FTS5.
func (i *Index) FTS() bool {
	return i.ftsEnabled
}

func (i *Index) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT UNIQUE,
			channel_id TEXT,
			seq INTEGER,
			role TEXT,
			content TEXT,
			created_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_channel_seq ON messages(channel_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := i.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return i.ensureFTSTable()
}

func (i *Index) ensureFTSTable() error {
	_, err := i.db.Exec(`CREATE VIRTUAL TABLE messages_fts USING fts5(
		channel_id UNINDEXED,
		role UNINDEXED,
		content
	);`)
	if err == nil {
		i.ftsEnabled = true
		return nil
	}
	if !strings.Contains(strings.ToLower(err.Error()), "no such module: fts5") {
		return errors.Wrap(err, "create messages_fts")
	}

	// Fallback for sqlite builds without FTS5 support.
	if _, err := i.db.Exec(`CREATE TABLE IF NOT EXISTS messages_fts (
		rowid INTEGER PRIMARY KEY,
		channel_id TEXT,
		role TEXT,
		content TEXT
	);`); err != nil {
		return errors.Wrap(err, "create messages_fts fallback table")
	}
	i.ftsEnabled = false
	return nil
}

// Add indexes one message. Re-adding the same message id is a no-op.
func (i *Index) Add(ctx context.Context, m conversation.Message) error {
	if strings.TrimSpace(m.Text) == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin index tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages(message_id, channel_id, seq, role, content, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING
	`, m.ID, m.ChannelID, int64(m.Seq), string(m.Role), m.Text, m.CreatedAt.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "insert message %s", m.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "message rowid")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages_fts(rowid, channel_id, role, content)
		VALUES(?, ?, ?, ?)
	`, rowID, m.ChannelID, string(m.Role), m.Text); err != nil {
		return errors.Wrapf(err, "insert fts row for %s", m.ID)
	}
	return errors.Wrap(tx.Commit(), "commit index tx")
}

// Search returns channels whose messages match query, best first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if i.ftsEnabled {
		hits, err := i.search(ctx, ftsMatcher(query), limit)
		if err == nil {
			return hits, nil
		}
		fallback, fbErr := i.search(ctx, likeMatcher(query), limit)
		if fbErr != nil {
			return nil, errors.Wrapf(err, "search (fts and fallback failed): fallback=%v", fbErr)
		}
		return fallback, nil
	}
	return i.search(ctx, likeMatcher(query), limit)
}

// matcher is the FROM and WHERE part of a search over messages aliased m.
type matcher struct {
	from  string
	where string
	args  []any
}

func ftsMatcher(query string) matcher {
	return matcher{
		from:  `messages_fts JOIN messages m ON m.id = messages_fts.rowid`,
		where: `messages_fts MATCH ?`,
		args:  []any{buildFTSQuery(query)},
	}
}

// likeMatcher is the fallback for builds without FTS5. Like the FTS query it
// requires every term, each matching the start of a whitespace-separated word.
func likeMatcher(query string) matcher {
	terms := tokenizeSearchTerms(query)
	if len(terms) == 0 {
		terms = []string{strings.ToLower(strings.TrimSpace(query))}
	}
	var b strings.Builder
	args := make([]any, 0, len(terms))
	b.WriteString("(")
	for idx, term := range terms {
		if idx > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(`(' ' || REPLACE(REPLACE(LOWER(m.content), char(10), ' '), char(9), ' ')) LIKE ? ESCAPE '\'`)
		args = append(args, "% "+escapeLike(term)+"%")
	}
	b.WriteString(")")
	return matcher{from: `messages m`, where: b.String(), args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (i *Index) search(ctx context.Context, q matcher, limit int) ([]Hit, error) {
	if len(q.args) == 1 && q.args[0] == "" {
		return nil, errors.New("empty fts query")
	}
	args := append(append([]any{}, q.args...), limit)
	rows, err := i.db.QueryContext(ctx, `
		SELECT m.channel_id, COUNT(*) AS score, MAX(m.seq) AS last_seq
		FROM `+q.from+`
		WHERE `+q.where+`
		GROUP BY m.channel_id
		ORDER BY score DESC, last_seq DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "search query")
	}

	hits := make([]Hit, 0, 16)
	for rows.Next() {
		var h Hit
		var lastSeq int64
		if err := rows.Scan(&h.ChannelID, &h.Score, &lastSeq); err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, "scan search row")
		}
		h.LastSeq = uint64(lastSeq)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "iterate search rows")
	}
	_ = rows.Close()

	for idx := range hits {
		hits[idx].Preview = trimPreview(i.preview(ctx, q, hits[idx].ChannelID))
	}
	return hits, nil
}

func (i *Index) preview(ctx context.Context, q matcher, channelID string) string {
	args := append(append([]any{}, q.args...), channelID)
	var content string
	_ = i.db.QueryRowContext(ctx, `
		SELECT m.content
		FROM `+q.from+`
		WHERE `+q.where+` AND m.channel_id = ?
		ORDER BY m.seq DESC
		LIMIT 1
	`, args...).Scan(&content)
	return content
}

func trimPreview(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	return ansi.Truncate(s, 120, "...")
}

func buildFTSQuery(raw string) string {
	parts := tokenizeSearchTerms(raw)
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, `"`, "")
		if p == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf(`"%s"*`, p))
	}
	return strings.Join(quoted, " AND ")
}

// Terms splits a search query the same way the index does, for highlighting.
func Terms(raw string) []string {
	return tokenizeSearchTerms(raw)
}

func tokenizeSearchTerms(raw string) []string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "`\"'.,:;!?()[]{}<>|")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
