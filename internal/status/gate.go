package status

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

// Availability is the single global record in the SYSTEM_STATUS collection.
type Availability struct {
	Online    bool      `json:"online"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAvailability is the fail-open fallback: when the status record
// cannot be read, the storefront is treated as online so checkout is never
// blocked by a status-read glitch.
func DefaultAvailability() Availability {
	return Availability{Online: true}
}

// Gate reads and toggles system availability.
type Gate struct {
	store   *binstore.Client
	log     *systemlog.Recorder
	nowFunc func() time.Time
}

func NewGate(store *binstore.Client, log *systemlog.Recorder) *Gate {
	return &Gate{store: store, log: log, nowFunc: time.Now}
}

// Current returns the availability record, failing open to online.
func (g *Gate) Current(ctx context.Context) Availability {
	a := DefaultAvailability()
	if err := g.store.Fetch(ctx, binstore.SystemStatus, &a); err != nil {
		logrus.WithField("error", err).Warn("availability read failed, assuming online")
		return DefaultAvailability()
	}
	return a
}

// Online reports whether the storefront is taking orders for immediate
// processing.
func (g *Gate) Online(ctx context.Context) bool {
	return g.Current(ctx).Online
}

// Set writes the availability record and logs the toggle. An explicit admin
// action must not fail silently, so write errors are returned.
func (g *Gate) Set(ctx context.Context, online bool, actor string) error {
	record := Availability{
		Online:    online,
		UpdatedBy: actor,
		UpdatedAt: g.nowFunc().UTC(),
	}
	if err := g.store.Replace(ctx, binstore.SystemStatus, record); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	state := "offline"
	if online {
		state = "online"
	}
	g.log.Append(ctx, "availability_toggle", fmt.Sprintf("system set %s", state), actor)
	return nil
}
