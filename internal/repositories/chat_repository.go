package repositories

import (
	"database/sql"

	intdb "adventurebuddha/internal/db"
)

// ChatMessage is one stored side of a web chat exchange.
type ChatMessage struct {
	MessageType     string
	Content         string
	AgentType       string
	Confidence      float64
	ResponseSeconds float64
}

type ChatRepository struct {
	DB *sql.DB
}

func (r ChatRepository) db() *sql.DB { return pickDB(r.DB) }

// EnsureSession returns the row id of sessionID, creating it on first use.
func (r ChatRepository) EnsureSession(sessionID string, userID *int64, metadata map[string]any) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO chat_sessions (session_id, user_id, metadata) VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE id=LAST_INSERT_ID(id)
	`, sessionID, nullInt64(userID), intdb.MustJSON(metadata))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddExchange stores the user message and the agent reply in order.
func (r ChatRepository) AddExchange(sessionRowID int64, msgs ...ChatMessage) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, m := range msgs {
		if _, err := tx.Exec(`
			INSERT INTO chat_messages (session_id, message_type, content, agent_type, confidence, response_seconds)
			VALUES (?,?,?,?,?,?)
		`, sessionRowID, m.MessageType, m.Content, m.AgentType, m.Confidence, m.ResponseSeconds); err != nil {
			return err
		}
	}
	return tx.Commit()
}
