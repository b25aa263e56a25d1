package auth

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/duetfm/duet/internal/models"
)

// DefaultRevalidateInterval is how often open sessions are re-probed.
const DefaultRevalidateInterval = 5 * time.Minute

// Prober is the slice of the services.Catalog surface the validator needs.
type Prober interface {
	Probe(ctx context.Context) error
	Source() models.Source
}

// Validator periodically checks stored credentials against each provider's
// identity endpoint and purges the ones that fail. Validation fails closed:
// a network error counts as invalid.
type Validator struct {
	store     *Store
	probers   []Prober
	interval  time.Duration
	logger    *log.Logger
	onInvalid func(models.Source)
}

// NewValidator creates a Validator over the given store and probers.
// onInvalid, if non-nil, is called after a credential has been purged so the
// view layer can fall back to the login screen for that provider only.
func NewValidator(store *Store, logger *log.Logger, onInvalid func(models.Source), probers ...Prober) *Validator {
	return &Validator{
		store:     store,
		probers:   probers,
		interval:  DefaultRevalidateInterval,
		logger:    logger,
		onInvalid: onInvalid,
	}
}

// SetInterval overrides the revalidation period. Used by tests.
func (v *Validator) SetInterval(d time.Duration) { v.interval = d }

// ValidateAll probes every provider that currently holds a credential.
// Providers without a credential are skipped; an invalid credential is purged
// from the store and reported through onInvalid.
func (v *Validator) ValidateAll(ctx context.Context) {
	for _, prober := range v.probers {
		provider := prober.Source()
		if v.store.Credential(provider) == "" {
			continue
		}

		if err := prober.Probe(ctx); err != nil {
			v.logger.Warnf("credential for %s failed validation: %v", provider, err)
			if purgeErr := v.store.ClearCredential(provider); purgeErr != nil {
				v.logger.Errorf("failed to purge %s credential: %v", provider, purgeErr)
			}
			if v.onInvalid != nil {
				v.onInvalid(provider)
			}
		}
	}
}

// Run validates once immediately, then on a fixed timer until the context is
// cancelled. The ticker is released on return, so no timer outlives the
// session that started it.
func (v *Validator) Run(ctx context.Context) {
	v.ValidateAll(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.ValidateAll(ctx)
		}
	}
}
