package db

import (
	"database/sql"
	"fmt"
)

const tableOptions = ` ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	username VARCHAR(150) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(50) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL DEFAULT '',
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	status VARCHAR(20) NOT NULL DEFAULT 'active',
	provider VARCHAR(20) NOT NULL DEFAULT 'local',
	provider_uid VARCHAR(191) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_username (username),
	UNIQUE KEY uniq_email (email),
	KEY idx_provider (provider, provider_uid)
)`},
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	slug VARCHAR(191) NOT NULL,
	title VARCHAR(255) NOT NULL,
	subtitle VARCHAR(255) NOT NULL DEFAULT '',
	description TEXT,
	overview TEXT,
	images JSON,
	price DECIMAL(10,2) NOT NULL DEFAULT 0,
	original_price DECIMAL(10,2) NULL,
	gst_percentage DECIMAL(5,2) NOT NULL DEFAULT 5,
	duration VARCHAR(100) NOT NULL DEFAULT '',
	tags JSON,
	category VARCHAR(20) NOT NULL DEFAULT 'mixed',
	featured_status VARCHAR(20) NOT NULL DEFAULT 'none',
	difficulty VARCHAR(20) NOT NULL DEFAULT 'easy',
	rating DECIMAL(3,2) NOT NULL DEFAULT 0,
	review_count INT NOT NULL DEFAULT 0,
	inclusions JSON,
	exclusions JSON,
	things_to_carry JSON,
	important_points JSON,
	who_can_attend TEXT,
	itinerary JSON,
	contact_info JSON,
	bank_details JSON,
	notes TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'draft',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_slug (slug),
	KEY idx_status_created (status, created_at)
)`},
	{"trip_slots", `
CREATE TABLE IF NOT EXISTS trip_slots (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	date DATE NOT NULL,
	time VARCHAR(10) NOT NULL DEFAULT '',
	vehicle_type VARCHAR(50) NOT NULL DEFAULT '',
	total_seats INT NOT NULL,
	available_seats INT NOT NULL,
	price DECIMAL(10,2) NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'available',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_trip_date (trip_id, date)
)`},
	{"seat_maps", `
CREATE TABLE IF NOT EXISTS seat_maps (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	slot_id BIGINT NOT NULL,
	vehicle VARCHAR(50) NOT NULL DEFAULT '',
	` + "`rows`" + ` INT NOT NULL DEFAULT 0,
	cols INT NOT NULL DEFAULT 0,
	seats JSON,
	UNIQUE KEY uniq_slot (slot_id)
)`},
	{"seat_locks", `
CREATE TABLE IF NOT EXISTS seat_locks (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	slot_id BIGINT NOT NULL,
	seat_ids JSON,
	lock_token VARCHAR(64) NOT NULL,
	user_id BIGINT NOT NULL,
	expires_at DATETIME NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_token (lock_token),
	KEY idx_slot_expiry (slot_id, expires_at)
)`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	slot_id BIGINT NOT NULL,
	seat_ids JSON,
	lock_token VARCHAR(64) NOT NULL DEFAULT '',
	amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'pending_payment',
	rating TINYINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_user (user_id),
	KEY idx_slot_status (slot_id, status)
)`},
	{"payments", `
CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	method VARCHAR(20) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	transaction_id VARCHAR(191) NOT NULL DEFAULT '',
	payment_data JSON,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_booking (booking_id)
)`},
	{"manual_payments", `
CREATE TABLE IF NOT EXISTS manual_payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	payment_id BIGINT NOT NULL,
	screenshot VARCHAR(500) NOT NULL,
	verified TINYINT(1) NOT NULL DEFAULT 0,
	verified_by BIGINT NULL,
	verified_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_payment (payment_id)
)`},
	{"leads", `
CREATE TABLE IF NOT EXISTS leads (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(50) NOT NULL DEFAULT '',
	destination VARCHAR(255) NULL,
	travel_date DATE NULL,
	travelers INT NOT NULL DEFAULT 1,
	budget VARCHAR(100) NOT NULL DEFAULT '',
	experience_level VARCHAR(50) NOT NULL DEFAULT '',
	interests JSON,
	status VARCHAR(20) NOT NULL DEFAULT 'new',
	source VARCHAR(50) NOT NULL DEFAULT 'home_page_modal',
	ip_address VARCHAR(64) NOT NULL DEFAULT '',
	user_agent VARCHAR(500) NOT NULL DEFAULT '',
	follow_up_date DATETIME NULL,
	notes TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_email (email),
	KEY idx_status (status)
)`},
	{"message_templates", `
CREATE TABLE IF NOT EXISTS message_templates (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	content TEXT NOT NULL,
	category VARCHAR(50) NOT NULL DEFAULT 'general',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_by BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`},
	{"contact_lists", `
CREATE TABLE IF NOT EXISTS contact_lists (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	file_name VARCHAR(500) NOT NULL DEFAULT '',
	column_mapping JSON,
	total_contacts INT NOT NULL DEFAULT 0,
	valid_contacts INT NOT NULL DEFAULT 0,
	invalid_contacts INT NOT NULL DEFAULT 0,
	whatsapp_contacts INT NOT NULL DEFAULT 0,
	uploaded_by BIGINT NOT NULL,
	processed_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`},
	{"contacts", `
CREATE TABLE IF NOT EXISTS contacts (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	contact_list_id BIGINT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	phone_number VARCHAR(32) NOT NULL,
	email VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	whatsapp_status TINYINT(1) NOT NULL DEFAULT 0,
	custom_fields JSON,
	conversation_history JSON,
	last_interaction_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_list_phone (contact_list_id, phone_number),
	KEY idx_phone (phone_number)
)`},
	{"message_campaigns", `
CREATE TABLE IF NOT EXISTS message_campaigns (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	template_id BIGINT NULL,
	message_content TEXT NOT NULL,
	attachment_url VARCHAR(500) NOT NULL DEFAULT '',
	contact_list_id BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'draft',
	campaign_type VARCHAR(20) NOT NULL DEFAULT 'standard',
	personalization_rules JSON,
	delay_between_messages INT NOT NULL DEFAULT 30,
	batch_size INT NOT NULL DEFAULT 10,
	total_messages INT NOT NULL DEFAULT 0,
	sent_messages INT NOT NULL DEFAULT 0,
	delivered_messages INT NOT NULL DEFAULT 0,
	failed_messages INT NOT NULL DEFAULT 0,
	pending_messages INT NOT NULL DEFAULT 0,
	current_batch INT NOT NULL DEFAULT 0,
	last_message_sent_at DATETIME NULL,
	scheduled_at DATETIME NULL,
	started_at DATETIME NULL,
	completed_at DATETIME NULL,
	created_by BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_owner (created_by)
)`},
	{"messages", `
CREATE TABLE IF NOT EXISTS messages (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	campaign_id BIGINT NOT NULL,
	contact_id BIGINT NOT NULL,
	content TEXT NOT NULL,
	attachment_url VARCHAR(500) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL DEFAULT 'queued',
	provider_message_id VARCHAR(191) NOT NULL DEFAULT '',
	error_message TEXT,
	retry_count INT NOT NULL DEFAULT 0,
	max_retries INT NOT NULL DEFAULT 3,
	sent_at DATETIME NULL,
	delivered_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_campaign_status (campaign_id, status)
)`},
	{"message_logs", `
CREATE TABLE IF NOT EXISTS message_logs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	message_id BIGINT NOT NULL,
	event VARCHAR(50) NOT NULL,
	details JSON,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_message (message_id)
)`},
	{"campaign_reports", `
CREATE TABLE IF NOT EXISTS campaign_reports (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	campaign_id BIGINT NOT NULL,
	report_type VARCHAR(20) NOT NULL,
	file_path VARCHAR(500) NOT NULL,
	generated_by BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_campaign (campaign_id)
)`},
	{"unsubscribers", `
CREATE TABLE IF NOT EXISTS unsubscribers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	phone_number VARCHAR(32) NOT NULL,
	reason VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_phone (phone_number)
)`},
	{"incoming_messages", `
CREATE TABLE IF NOT EXISTS incoming_messages (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	contact_id BIGINT NOT NULL,
	provider_message_id VARCHAR(191) NOT NULL DEFAULT '',
	message_type VARCHAR(30) NOT NULL DEFAULT 'text',
	body TEXT,
	intent VARCHAR(50) NOT NULL DEFAULT '',
	reply TEXT,
	processed_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_contact (contact_id)
)`},
	{"ai_agents", `
CREATE TABLE IF NOT EXISTS ai_agents (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	agent_type VARCHAR(30) NOT NULL,
	description TEXT,
	model_name VARCHAR(100) NOT NULL DEFAULT 'xai/grok-beta',
	temperature DOUBLE NOT NULL DEFAULT 0.7,
	max_tokens INT NOT NULL DEFAULT 1000,
	system_prompt TEXT NOT NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_by BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_name_type (name, agent_type)
)`},
	{"ai_conversations", `
CREATE TABLE IF NOT EXISTS ai_conversations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	agent_id BIGINT NOT NULL,
	user_id BIGINT NULL,
	session_id VARCHAR(100) NOT NULL,
	context_data JSON,
	messages JSON,
	message_count INT NOT NULL DEFAULT 0,
	last_message_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_agent_session (agent_id, session_id)
)`},
	{"ai_sentiment_analyses", `
CREATE TABLE IF NOT EXISTS ai_sentiment_analyses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	message_content TEXT NOT NULL,
	message_id VARCHAR(100) NOT NULL DEFAULT '',
	sentiment VARCHAR(20) NOT NULL,
	confidence_score DOUBLE NOT NULL DEFAULT 0,
	positive_score DOUBLE NOT NULL DEFAULT 0,
	negative_score DOUBLE NOT NULL DEFAULT 0,
	neutral_score DOUBLE NOT NULL DEFAULT 0,
	keywords JSON,
	entities JSON,
	analyzed_by BIGINT NULL,
	analyzed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`},
	{"ai_content_generations", `
CREATE TABLE IF NOT EXISTS ai_content_generations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	content_type VARCHAR(50) NOT NULL,
	prompt TEXT NOT NULL,
	generated_content TEXT NOT NULL,
	quality_score DOUBLE NULL,
	is_used TINYINT(1) NOT NULL DEFAULT 0,
	usage_count INT NOT NULL DEFAULT 0,
	generated_by BIGINT NOT NULL,
	generated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`},
	{"ai_processing_logs", `
CREATE TABLE IF NOT EXISTS ai_processing_logs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	agent_id BIGINT NULL,
	operation_type VARCHAR(50) NOT NULL,
	input_data JSON,
	output_data JSON,
	processing_time DOUBLE NOT NULL DEFAULT 0,
	tokens_used INT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'success',
	error_message TEXT,
	user_id BIGINT NULL,
	processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_operation (operation_type, status)
)`},
	{"chat_sessions", `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	session_id VARCHAR(100) NOT NULL,
	user_id BIGINT NULL,
	metadata JSON,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_session (session_id)
)`},
	{"chat_messages", `
CREATE TABLE IF NOT EXISTS chat_messages (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	session_id BIGINT NOT NULL,
	message_type VARCHAR(20) NOT NULL,
	content TEXT NOT NULL,
	agent_type VARCHAR(50) NOT NULL DEFAULT '',
	confidence DOUBLE NOT NULL DEFAULT 0,
	response_seconds DOUBLE NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_session (session_id),
	KEY idx_agent_created (agent_type, created_at)
)`},
	{"dashboard_activities", `
CREATE TABLE IF NOT EXISTS dashboard_activities (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	activity_type VARCHAR(50) NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT,
	user_id BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_created (created_at)
)`},
}

// Tables lists every table managed by EnsureSchema, in creation order.
func Tables() []string {
	out := make([]string, 0, len(schema))
	for _, s := range schema {
		out = append(out, s.table)
	}
	return out
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("db not available")
	}
	for _, s := range schema {
		if _, err := conn.Exec(s.ddl + tableOptions); err != nil {
			return fmt.Errorf("create table %s: %w", s.table, err)
		}
	}
	return nil
}
