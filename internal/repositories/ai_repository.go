package repositories

import (
	"database/sql"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const aiAgentColumns = `id, name, agent_type, COALESCE(description,''), model_name, temperature, max_tokens, system_prompt,
	is_active, created_by, created_at, updated_at`

type AIRepository struct {
	DB *sql.DB
}

func (r AIRepository) db() *sql.DB { return pickDB(r.DB) }

func scanAgent(s scanner) (models.AIAgent, error) {
	var a models.AIAgent
	var createdBy sql.NullInt64
	err := s.Scan(&a.ID, &a.Name, &a.AgentType, &a.Description, &a.ModelName, &a.Temperature, &a.MaxTokens, &a.SystemPrompt,
		&a.IsActive, &createdBy, &a.CreatedAt, &a.UpdatedAt)
	a.CreatedBy = int64Ptr(createdBy)
	return a, err
}

func (r AIRepository) ListAgents() ([]models.AIAgent, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT ` + aiAgentColumns + ` FROM ai_agents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AIAgent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r AIRepository) GetAgent(id int64) (models.AIAgent, error) {
	db := r.db()
	if db == nil {
		return models.AIAgent{}, ErrDBUnavailable
	}
	return scanAgent(db.QueryRow(`SELECT `+aiAgentColumns+` FROM ai_agents WHERE id=? LIMIT 1`, id))
}

// FindAgent looks up an active agent by name and type.
func (r AIRepository) FindAgent(name, agentType string) (models.AIAgent, error) {
	db := r.db()
	if db == nil {
		return models.AIAgent{}, ErrDBUnavailable
	}
	return scanAgent(db.QueryRow(`SELECT `+aiAgentColumns+` FROM ai_agents WHERE name=? AND agent_type=? AND is_active=1 ORDER BY id LIMIT 1`, name, agentType))
}

func (r AIRepository) CreateAgent(a models.AIAgent) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO ai_agents (name, agent_type, description, model_name, temperature, max_tokens, system_prompt, is_active, created_by)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, a.Name, a.AgentType, a.Description, a.ModelName, a.Temperature, a.MaxTokens, a.SystemPrompt, a.IsActive, nullInt64(a.CreatedBy))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r AIRepository) UpdateAgent(a models.AIAgent) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`
		UPDATE ai_agents SET name=?, agent_type=?, description=?, model_name=?, temperature=?, max_tokens=?, system_prompt=?, is_active=?
		WHERE id=?
	`, a.Name, a.AgentType, a.Description, a.ModelName, a.Temperature, a.MaxTokens, a.SystemPrompt, a.IsActive, a.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r AIRepository) DeleteAgent(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`DELETE FROM ai_agents WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

const conversationColumns = `id, agent_id, user_id, session_id, context_data, messages, message_count, last_message_at, created_at`

func scanConversation(s scanner) (models.AIConversation, error) {
	var c models.AIConversation
	var userID sql.NullInt64
	var ctx, msgs sql.NullString
	err := s.Scan(&c.ID, &c.AgentID, &userID, &c.SessionID, &ctx, &msgs, &c.MessageCount, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.UserID = int64Ptr(userID)
	c.ContextData = map[string]any{}
	c.Messages = []models.ConversationMessage{}
	if err := intdb.ScanJSON(ctx, &c.ContextData); err != nil {
		return c, err
	}
	return c, intdb.ScanJSON(msgs, &c.Messages)
}

func (r AIRepository) GetConversation(agentID int64, sessionID string) (models.AIConversation, error) {
	db := r.db()
	if db == nil {
		return models.AIConversation{}, ErrDBUnavailable
	}
	return scanConversation(db.QueryRow(`SELECT `+conversationColumns+` FROM ai_conversations WHERE agent_id=? AND session_id=? LIMIT 1`, agentID, sessionID))
}

// SaveConversation inserts or replaces the stored transcript of a session.
func (r AIRepository) SaveConversation(c models.AIConversation) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`
		INSERT INTO ai_conversations (agent_id, user_id, session_id, context_data, messages, message_count)
		VALUES (?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE context_data=VALUES(context_data), messages=VALUES(messages), message_count=VALUES(message_count)
	`, c.AgentID, nullInt64(c.UserID), c.SessionID, intdb.MustJSON(c.ContextData), intdb.MustJSON(c.Messages), len(c.Messages))
	return err
}

func (r AIRepository) ListConversations(userID *int64) ([]models.AIConversation, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	query := `SELECT ` + conversationColumns + ` FROM ai_conversations`
	args := []any{}
	if userID != nil {
		query += ` WHERE user_id=?`
		args = append(args, *userID)
	}
	rows, err := db.Query(query+` ORDER BY last_message_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AIConversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r AIRepository) CreateSentiment(a models.AISentimentAnalysis) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO ai_sentiment_analyses (message_content, message_id, sentiment, confidence_score, positive_score,
			negative_score, neutral_score, keywords, entities, analyzed_by)
		VALUES (?,?,?,?,?,?,?,?,?,?)
	`, a.MessageContent, a.MessageID, a.Sentiment, a.ConfidenceScore, a.PositiveScore,
		a.NegativeScore, a.NeutralScore, intdb.MustJSON(a.Keywords), intdb.MustJSON(a.Entities), nullInt64(a.AnalyzedBy))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r AIRepository) ListSentiments(userID *int64) ([]models.AISentimentAnalysis, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	query := `SELECT id, message_content, message_id, sentiment, confidence_score, positive_score, negative_score,
		neutral_score, keywords, entities, analyzed_by, analyzed_at FROM ai_sentiment_analyses`
	args := []any{}
	if userID != nil {
		query += ` WHERE analyzed_by=?`
		args = append(args, *userID)
	}
	rows, err := db.Query(query+` ORDER BY analyzed_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AISentimentAnalysis{}
	for rows.Next() {
		var a models.AISentimentAnalysis
		var kw, ent sql.NullString
		var by sql.NullInt64
		if err := rows.Scan(&a.ID, &a.MessageContent, &a.MessageID, &a.Sentiment, &a.ConfidenceScore, &a.PositiveScore,
			&a.NegativeScore, &a.NeutralScore, &kw, &ent, &by, &a.AnalyzedAt); err != nil {
			return nil, err
		}
		a.AnalyzedBy = int64Ptr(by)
		a.Keywords, a.Entities = []string{}, []string{}
		_ = intdb.ScanJSON(kw, &a.Keywords)
		_ = intdb.ScanJSON(ent, &a.Entities)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r AIRepository) CreateContent(g models.AIContentGeneration) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO ai_content_generations (content_type, prompt, generated_content, generated_by) VALUES (?,?,?,?)`,
		g.ContentType, g.Prompt, g.GeneratedContent, g.GeneratedBy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const contentColumns = `id, content_type, prompt, generated_content, quality_score, is_used, usage_count, generated_by, generated_at`

func scanContent(s scanner) (models.AIContentGeneration, error) {
	var g models.AIContentGeneration
	var q sql.NullFloat64
	err := s.Scan(&g.ID, &g.ContentType, &g.Prompt, &g.GeneratedContent, &q, &g.IsUsed, &g.UsageCount, &g.GeneratedBy, &g.GeneratedAt)
	if q.Valid {
		v := q.Float64
		g.QualityScore = &v
	}
	return g, err
}

func (r AIRepository) ListContent(userID int64) ([]models.AIContentGeneration, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+contentColumns+` FROM ai_content_generations WHERE generated_by=? ORDER BY generated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AIContentGeneration{}
	for rows.Next() {
		g, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r AIRepository) GetContent(id, userID int64) (models.AIContentGeneration, error) {
	db := r.db()
	if db == nil {
		return models.AIContentGeneration{}, ErrDBUnavailable
	}
	return scanContent(db.QueryRow(`SELECT `+contentColumns+` FROM ai_content_generations WHERE id=? AND generated_by=? LIMIT 1`, id, userID))
}

func (r AIRepository) MarkContentUsed(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE ai_content_generations SET is_used=1, usage_count=usage_count+1 WHERE id=?`, id)
	return err
}

func (r AIRepository) CreateLog(l models.AIProcessingLog) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	var tokens any
	if l.TokensUsed != nil {
		tokens = *l.TokensUsed
	}
	_, err := db.Exec(`
		INSERT INTO ai_processing_logs (agent_id, operation_type, input_data, output_data, processing_time, tokens_used, status, error_message, user_id)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, nullInt64(l.AgentID), l.OperationType, intdb.MustJSON(l.InputData), intdb.MustJSON(l.OutputData), l.ProcessingTime,
		tokens, l.Status, nullIfEmpty(l.ErrorMessage), nullInt64(l.UserID))
	return err
}

func (r AIRepository) ListLogs(limit int) ([]models.AIProcessingLog, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT id, agent_id, operation_type, input_data, output_data, processing_time, tokens_used, status,
			COALESCE(error_message,''), user_id, processed_at
		FROM ai_processing_logs ORDER BY processed_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AIProcessingLog{}
	for rows.Next() {
		var l models.AIProcessingLog
		var agentID, userID, tokens sql.NullInt64
		var in, outData sql.NullString
		if err := rows.Scan(&l.ID, &agentID, &l.OperationType, &in, &outData, &l.ProcessingTime, &tokens, &l.Status,
			&l.ErrorMessage, &userID, &l.ProcessedAt); err != nil {
			return nil, err
		}
		l.AgentID = int64Ptr(agentID)
		l.UserID = int64Ptr(userID)
		if tokens.Valid {
			v := int(tokens.Int64)
			l.TokensUsed = &v
		}
		l.InputData, l.OutputData = map[string]any{}, map[string]any{}
		_ = intdb.ScanJSON(in, &l.InputData)
		_ = intdb.ScanJSON(outData, &l.OutputData)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r AIRepository) Stats() (models.AIStats, error) {
	db := r.db()
	st := models.AIStats{Operations: []models.OperationCount{}}
	if db == nil {
		return st, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT operation_type, status, COUNT(*) FROM ai_processing_logs GROUP BY operation_type, status ORDER BY operation_type, status`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var c models.OperationCount
		if err := rows.Scan(&c.OperationType, &c.Status, &c.Count); err != nil {
			rows.Close()
			return st, err
		}
		st.TotalOperations += c.Count
		st.Operations = append(st.Operations, c)
	}
	rows.Close()

	err = db.QueryRow(`SELECT COALESCE(AVG(processing_time),0), COALESCE(SUM(tokens_used),0) FROM ai_processing_logs`).
		Scan(&st.AverageProcessingTime, &st.TotalTokensUsed)
	if err != nil {
		return st, err
	}
	err = db.QueryRow(`SELECT COUNT(*) FROM ai_conversations`).Scan(&st.ConversationCount)
	return st, err
}
