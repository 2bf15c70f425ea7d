package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetsight/fleetsight/internal/store"
)

// Ingestor validates incoming reports and merges them into the store.
type Ingestor struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewIngestor returns an Ingestor writing through the given store.
func NewIngestor(s store.Store, log zerolog.Logger) *Ingestor {
	return &Ingestor{store: s, log: log, now: time.Now}
}

// Ingest merges one report into durable state. The merge document is the
// report's system_info plus the os label and an ingestion-time last_seen;
// fields the report omits keep their previously stored values. Exactly one
// store write happens per call and store failures are surfaced, not retried.
func (in *Ingestor) Ingest(ctx context.Context, r Report) error {
	if err := r.Validate(); err != nil {
		in.log.Warn().Err(err).Str("machine_id", r.MachineID).Msg("rejected report")
		return err
	}

	doc := make(map[string]any, len(r.SystemInfo)+2)
	for k, v := range r.SystemInfo {
		doc[k] = v
	}
	// The envelope wins for the reserved fields: os always comes from the
	// report envelope and last_seen always reflects ingestion time, so a
	// stored last_seen can never regress to an agent-supplied value.
	doc[store.FieldOS] = r.OS
	doc[store.FieldLastSeen] = in.now()

	if err := in.store.MergeMachine(ctx, r.MachineID, doc); err != nil {
		in.log.Error().Err(err).Str("machine_id", r.MachineID).Msg("merge failed")
		return fmt.Errorf("merge machine %s: %w", r.MachineID, err)
	}

	in.log.Info().Str("machine_id", r.MachineID).Str("os", r.OS).
		Int("fields", len(r.SystemInfo)).Msg("report merged")
	return nil
}
