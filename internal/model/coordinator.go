// Package model maps roles and host RAM tiers to concrete model
// identifiers, and classifies free-text tasks into intents.
package model

import (
	"sync"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/logging"
	"github.com/cadenroberts/ollamabot/internal/sysinfo"
)

// Pool holds the model identifiers for one role: a tier-specific map
// plus a primary fallback.
type Pool struct {
	Primary string                  `json:"primary"`
	TierMap map[core.RAMTier]string `json:"tier_map,omitempty"`
}

// Select returns the identifier for a tier, falling back to primary.
func (p Pool) Select(tier core.RAMTier) string {
	if id, ok := p.TierMap[tier]; ok && id != "" {
		return id
	}
	return p.Primary
}

// Coordinator owns the four role pools and the active RAM tier.
type Coordinator struct {
	mu     sync.RWMutex
	pools  map[core.ModelRole]Pool
	tier   core.RAMTier
	logger *logging.Logger
}

// Option configures a coordinator.
type Option func(*Coordinator)

// WithTier overrides tier detection.
func WithTier(tier core.RAMTier) Option {
	return func(c *Coordinator) { c.tier = tier }
}

// WithLogger installs a logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator with the given role pools. The
// active tier is detected from host memory unless overridden.
func NewCoordinator(pools map[core.ModelRole]Pool, opts ...Option) *Coordinator {
	c := &Coordinator{
		pools:  make(map[core.ModelRole]Pool, len(pools)),
		logger: logging.NewNop(),
	}
	for role, pool := range pools {
		c.pools[role] = pool
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tier == "" {
		c.tier = sysinfo.Detect().Tier
	}
	c.logger.Debug("model coordinator ready", "tier", string(c.tier))
	return c
}

// Tier returns the active RAM tier.
func (c *Coordinator) Tier() core.RAMTier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tier
}

// SelectForRole returns the model identifier for a role under the
// active tier.
func (c *Coordinator) SelectForRole(role core.ModelRole) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pool, ok := c.pools[role]
	if !ok {
		return "", core.ErrValidation(core.CodeUnknownRole, "no model pool for role "+string(role))
	}
	id := pool.Select(c.tier)
	if id == "" {
		return "", core.ErrValidation(core.CodeUnknownRole, "role "+string(role)+" has no model configured")
	}
	return id, nil
}

// Select resolves a model for a role, honoring an intent override: a
// vision intent always routes to the vision pool.
func (c *Coordinator) Select(role core.ModelRole, intent core.Intent) (string, error) {
	if intent == core.IntentVision {
		role = core.RoleVision
	}
	return c.SelectForRole(role)
}

// GetForSchedule returns the model identifier for a phase, per the
// fixed phase-to-role mapping.
func (c *Coordinator) GetForSchedule(phase core.PhaseID) (string, error) {
	if !core.ValidPhase(phase) {
		return "", core.ErrValidation(core.CodeInvalidPhase, "invalid phase for model selection")
	}
	return c.SelectForRole(core.RoleForPhase(phase))
}

// SetPool replaces a role's pool, e.g. after a config reload.
func (c *Coordinator) SetPool(role core.ModelRole, pool Pool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[role] = pool
}
