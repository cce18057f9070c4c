// Package audit records mutating API calls to ScyllaDB.
package audit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/gocql/gocql"
)

type Entry struct {
	UserID    string
	UserEmail string
	Action    string
	Resource  string
	Path      string
	Status    int
	IPAddress string
	UserAgent string
	RequestID string
	Timestamp time.Time
}

func (e Entry) Success() bool {
	return e.Status >= 200 && e.Status < 400
}

const createTable = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id timeuuid PRIMARY KEY,
	user_id text,
	user_email text,
	action text,
	resource text,
	path text,
	status int,
	success boolean,
	ip_address text,
	user_agent text,
	request_id text,
	timestamp timestamp
)`

const insertEntry = `
INSERT INTO audit_logs (
	id, user_id, user_email, action, resource, path, status,
	success, ip_address, user_agent, request_id, timestamp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type ScyllaSink struct {
	session *gocql.Session
}

// NewScyllaSink creates the audit table when it does not exist.
func NewScyllaSink(ctx context.Context, session *gocql.Session) (*ScyllaSink, error) {
	if err := session.Query(createTable).WithContext(ctx).Exec(); err != nil {
		return nil, errors.Wrap(err, "create audit_logs")
	}
	return &ScyllaSink{session: session}, nil
}

func (s *ScyllaSink) Record(ctx context.Context, e Entry) error {
	err := s.session.Query(insertEntry,
		gocql.UUIDFromTime(e.Timestamp), e.UserID, e.UserEmail, e.Action, e.Resource, e.Path,
		e.Status, e.Success(), e.IPAddress, e.UserAgent, e.RequestID, e.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		return errors.Wrap(err, "insert audit entry")
	}
	return nil
}

type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
