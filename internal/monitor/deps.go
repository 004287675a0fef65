package monitor

import (
	"time"

	"github.com/railclaw/orchestrator/internal/chain/evm"
	chainsolana "github.com/railclaw/orchestrator/internal/chain/solana"
	"github.com/railclaw/orchestrator/internal/config"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/recordstore"
	"github.com/railclaw/orchestrator/internal/sealing"
)

// Deps bundles everything a monitor needs besides the payment record it was
// launched for. A single Deps is shared by every monitor goroutine.
type Deps struct {
	Store    *recordstore.Store
	EVMPool  *evm.Pool
	Solana   *chainsolana.Client
	Sealer   *sealing.Sealer
	Config   *config.Config
	Metrics  *metrics.Metrics
	Registry *Registry
}

// PollInterval returns the configured monitor poll interval.
func (d *Deps) PollInterval() time.Duration {
	ms := d.Config.Monitoring.PollIntervalMs
	if ms <= 0 {
		ms = 30000
	}
	return time.Duration(ms) * time.Millisecond
}

// DirectDeadline returns the wall-clock deadline for a direct monitor
// started at startedAt.
func (d *Deps) DirectDeadline(startedAt time.Time) time.Time {
	ms := d.Config.Monitoring.DirectTimeoutMs
	if ms <= 0 {
		ms = 3600000
	}
	return startedAt.Add(time.Duration(ms) * time.Millisecond)
}

// BridgeDeadline returns the wall-clock deadline for a bridge monitor
// started at startedAt.
func (d *Deps) BridgeDeadline(startedAt time.Time) time.Time {
	ms := d.Config.Monitoring.BridgeTimeoutMs
	if ms <= 0 {
		ms = 7200000
	}
	return startedAt.Add(time.Duration(ms) * time.Millisecond)
}

// RequiredConfirmations returns the number of confirmations a direct
// transfer must accumulate before the payment is confirmed.
func (d *Deps) RequiredConfirmations() uint64 {
	if d.Config.Monitoring.RequiredConfirmations == 0 {
		return 20
	}
	return d.Config.Monitoring.RequiredConfirmations
}
