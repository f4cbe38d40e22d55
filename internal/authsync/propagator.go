// Package authsync bridges the identity registry (source of truth for
// doctor authorization) and the clinical record store (its consumer). The
// local flag is a cache: push sync keeps it warm on change, pull
// reconciliation repairs it on read, and on any disagreement about a revoke
// the registry's answer wins.
package authsync

import (
	"sync"

	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Propagator maintains the clinical-side authorization cache.
//
// Lock ordering: the registry invokes AuthorizeDoctor/RevokeDoctor while
// holding its own lock, so the propagator must never call back into the
// registry while holding its own. Ensure therefore reads and repairs the
// cache in separate critical sections around the registry query.
type Propagator struct {
	mu         sync.Mutex
	authorized map[types.SubjectID]bool

	// registry is the source of truth. Nil means unwired: every check
	// degrades to unauthorized rather than failing open.
	registry interfaces.IdentityDirectory

	logger *logger.Logger
}

// NewPropagator creates a propagator. The registry reference may be nil and
// wired later with SetRegistry.
func NewPropagator(registry interfaces.IdentityDirectory, log *logger.Logger) *Propagator {
	return &Propagator{
		authorized: make(map[types.SubjectID]bool),
		registry:   registry,
		logger:     log,
	}
}

// SetRegistry wires the source-of-truth registry.
func (p *Propagator) SetRegistry(registry interfaces.IdentityDirectory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry = registry
}

// AuthorizeDoctor is the push-sync entry point for a grant.
func (p *Propagator) AuthorizeDoctor(id types.SubjectID) error {
	if id.IsZero() {
		return types.NewError(types.KindInvalidSubject, "doctor id must not be the null identifier")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized[id] = true
	return nil
}

// RevokeDoctor is the push-sync entry point for a revoke.
func (p *Propagator) RevokeDoctor(id types.SubjectID) error {
	if id.IsZero() {
		return types.NewError(types.KindInvalidSubject, "doctor id must not be the null identifier")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized[id] = false
	return nil
}

// Ensure answers whether the doctor is currently authorized to write,
// reconciling the local cache against the registry:
//
//   - local yes, registry yes: authorized.
//   - local yes, registry no: the registry wins; the stale grant is
//     corrected and the caller is refused.
//   - local no, registry yes: the missed grant is re-synced inline and the
//     check retried once.
//   - registry unwired or answering no for an unknown id: fail closed.
func (p *Propagator) Ensure(id types.SubjectID) bool {
	if id.IsZero() {
		return false
	}

	p.mu.Lock()
	local := p.authorized[id]
	registry := p.registry
	p.mu.Unlock()

	if registry == nil {
		if local {
			p.logger.Security("authsync_registry_unwired", id.String(), map[string]interface{}{
				"local": local,
			})
		}
		return false
	}

	truth := registry.IsDoctorAuthorized(id)
	if truth == local {
		return truth
	}

	p.mu.Lock()
	p.authorized[id] = truth
	p.mu.Unlock()

	if local && !truth {
		p.logger.Security("authsync_stale_grant_corrected", id.String(), nil)
		return false
	}

	p.logger.WithComponent("authsync").WithField("doctor", id.String()).Info("Missed grant re-synced from registry")
	return truth
}

// LocallyAuthorized exposes the raw cache state, without reconciliation.
func (p *Propagator) LocallyAuthorized(id types.SubjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authorized[id]
}
