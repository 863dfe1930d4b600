package services

import (
	"database/sql"
	"errors"
	"time"

	"adventurebuddha/internal/db"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/repositories"
)

// repoErr maps a repository failure onto a domain error. Missing rows become
// NotFoundError for resource, unique key violations ConflictError; everything
// else is internal.
func repoErr(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	if db.IsDuplicate(err) {
		return domain.ConflictError{Resource: resource, Msg: "already exists", Err: err}
	}
	if errors.Is(err, repositories.ErrDBUnavailable) {
		return domain.UnavailableError{Service: "database", Err: err}
	}
	return domain.InternalError{Err: err}
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Notifier pushes realtime payloads to websocket groups.
type Notifier interface {
	Broadcast(group string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, any) {}

func notifierOr(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
