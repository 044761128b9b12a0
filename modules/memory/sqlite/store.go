package sqlite

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/pkg/message"
)

// SessionStore implements convmem.Store on a SQLite database. The Store
// interface is error-free, so failures are logged and treated as misses;
// conversation memory degrades to stateless rather than failing a request.
type SessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// SetLogger attaches a logger for operational errors. Without one the store
// stays silent.
func (s *SessionStore) SetLogger(logger *slog.Logger) {
	s.logger = logger.With("component", "session_store")
}

func (s *SessionStore) warn(msg string, err error, sessionID string) {
	if s.logger != nil {
		s.logger.Warn(msg, "error", err, "session_id", sessionID)
	}
}

// Get loads the session and its messages ordered by sequence.
func (s *SessionStore) Get(sessionID string) (convmem.Session, bool) {
	var (
		sess      convmem.Session
		active    int64
		topicsRaw string
	)
	row := s.db.QueryRow(
		"SELECT session_id, last_active, total_messages, dominant_topics FROM sessions WHERE session_id = ?",
		sessionID,
	)
	if err := row.Scan(&sess.ID, &active, &sess.TotalMessages, &topicsRaw); err != nil {
		if err != sql.ErrNoRows {
			s.warn("load session", err, sessionID)
		}
		return convmem.Session{}, false
	}
	sess.LastActive = time.UnixMilli(active)
	if err := json.Unmarshal([]byte(topicsRaw), &sess.DominantTopics); err != nil {
		s.warn("decode dominant topics", err, sessionID)
	}

	messages, err := s.loadMessages(sessionID)
	if err != nil {
		s.warn("load messages", err, sessionID)
		return convmem.Session{}, false
	}
	sess.Messages = messages
	return sess, true
}

func (s *SessionStore) loadMessages(sessionID string) ([]convmem.Message, error) {
	rows, err := s.db.Query(
		"SELECT role, content, topics, metadata, created_at FROM messages WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []convmem.Message
	for rows.Next() {
		var (
			msg      convmem.Message
			role     string
			topics   string
			metadata string
			created  int64
		)
		if err := rows.Scan(&role, &msg.Content, &topics, &metadata, &created); err != nil {
			return nil, err
		}
		msg.Role = message.Role(role)
		msg.Timestamp = time.UnixMilli(created)
		if err := json.Unmarshal([]byte(topics), &msg.Topics); err != nil {
			return nil, err
		}
		if metadata != "" && metadata != "{}" {
			var meta convmem.MessageMetadata
			if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
				return nil, err
			}
			msg.Metadata = &meta
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Put replaces the stored session state in one transaction. Messages are
// rewritten wholesale; the set is small by construction (memory caps it).
func (s *SessionStore) Put(session convmem.Session) {
	tx, err := s.db.Begin()
	if err != nil {
		s.warn("begin put", err, session.ID)
		return
	}
	defer tx.Rollback() //nolint:errcheck

	topics, err := json.Marshal(topicsOrEmpty(session.DominantTopics))
	if err != nil {
		s.warn("encode dominant topics", err, session.ID)
		return
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, last_active, total_messages, dominant_topics)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   last_active = excluded.last_active,
		   total_messages = excluded.total_messages,
		   dominant_topics = excluded.dominant_topics`,
		session.ID, session.LastActive.UnixMilli(), session.TotalMessages, string(topics),
	)
	if err != nil {
		s.warn("upsert session", err, session.ID)
		return
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", session.ID); err != nil {
		s.warn("clear messages", err, session.ID)
		return
	}
	for seq, msg := range session.Messages {
		msgTopics, err := json.Marshal(topicsOrEmpty(msg.Topics))
		if err != nil {
			s.warn("encode message topics", err, session.ID)
			return
		}
		metadata := "{}"
		if msg.Metadata != nil {
			raw, err := json.Marshal(msg.Metadata)
			if err != nil {
				s.warn("encode message metadata", err, session.ID)
				return
			}
			metadata = string(raw)
		}
		_, err = tx.Exec(
			"INSERT INTO messages (session_id, seq, role, content, topics, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			session.ID, seq, string(msg.Role), msg.Content, string(msgTopics), metadata, msg.Timestamp.UnixMilli(),
		)
		if err != nil {
			s.warn("insert message", err, session.ID)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.warn("commit put", err, session.ID)
	}
}

// Evict removes the session and its messages, reporting whether it existed.
func (s *SessionStore) Evict(sessionID string) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.warn("begin evict", err, sessionID)
		return false
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		s.warn("delete session", err, sessionID)
		return false
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		s.warn("delete messages", err, sessionID)
		return false
	}
	if err := tx.Commit(); err != nil {
		s.warn("commit evict", err, sessionID)
		return false
	}
	affected, _ := res.RowsAffected()
	return affected > 0
}

// List returns every stored session with its messages.
func (s *SessionStore) List() []convmem.Session {
	rows, err := s.db.Query("SELECT session_id FROM sessions")
	if err != nil {
		s.warn("list sessions", err, "")
		return nil
	}
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			s.warn("scan session id", err, "")
			return nil
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.warn("list sessions", err, "")
		return nil
	}

	out := make([]convmem.Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.Get(id); ok {
			out = append(out, sess)
		}
	}
	return out
}

func topicsOrEmpty(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}
