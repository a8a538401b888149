package systemlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/binstore"
)

// Entry is one append-only System Log record, newest-last in the collection.
type Entry struct {
	EntryID     string    `json:"entry_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
}

// Recorder appends to and reads the SYSTEM_LOG collection.
type Recorder struct {
	store   *binstore.Client
	nowFunc func() time.Time
}

func NewRecorder(store *binstore.Client) *Recorder {
	return &Recorder{store: store, nowFunc: time.Now}
}

// Append adds an entry at the end of the log. The log is a side effect of
// every lifecycle action, so a failed append is logged locally and swallowed;
// it must never fail the action that produced it.
func (r *Recorder) Append(ctx context.Context, action, description, actor string) {
	entry := Entry{
		EntryID:     uuid.NewString(),
		Action:      action,
		Description: description,
		PerformedBy: actor,
		PerformedAt: r.nowFunc().UTC(),
	}
	err := binstore.Mutate(ctx, r.store, binstore.SystemLog, func(entries []Entry) ([]Entry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"action": action, "error": err}).
			Warn("system log append failed")
	}
}

// Entries returns the whole log, oldest first. Read failures come back as an
// empty log via the collection default.
func (r *Recorder) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := r.store.Fetch(ctx, binstore.SystemLog, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
