// Package hostversion resolves the version token of the running host build.
//
// The token is taken from a live, host-provided identifier such as the
// package of the server implementation ("org.bukkit.craftbukkit.v1_16_R2"),
// never from configuration. It is computed at most once per [Resolver]; the
// outcome, success or failure, is kept for the lifetime of the Resolver.
package hostversion

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/pkg/remap"
)

// Probe returns the host identifier the token is extracted from.
type Probe func() (string, error)

// Static returns a Probe that always reports identifier.
func Static(identifier string) Probe {
	return func() (string, error) { return identifier, nil }
}

type result struct {
	token domain.VersionToken
	err   error
}

// Resolver memoizes the version token. The zero value is not usable; use New.
type Resolver struct {
	probe Probe

	mu  sync.Mutex
	res atomic.Pointer[result]
}

// New returns a Resolver that calls probe on first use.
func New(probe Probe) *Resolver {
	return &Resolver{probe: probe}
}

// Resolve returns the token, computing it on the first call. Concurrent first
// callers block until the single computation finishes and all observe the same
// outcome. Errors wrap domain.ErrUnsupportedHost and are never retried.
func (r *Resolver) Resolve() (domain.VersionToken, error) {
	if res := r.res.Load(); res != nil {
		return res.token, res.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res := r.res.Load(); res != nil {
		return res.token, res.err
	}

	res := &result{}
	res.token, res.err = r.compute()
	r.res.Store(res)
	return res.token, res.err
}

// Reset forgets the memoized outcome so the next Resolve probes again.
// It exists for test isolation; production code never calls it.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Store(nil)
}

func (r *Resolver) compute() (domain.VersionToken, error) {
	if r.probe == nil {
		return "", &domain.HostError{Reason: "no host probe configured"}
	}
	id, err := r.probe()
	if err != nil {
		return "", &domain.HostError{Reason: "host probe failed: " + err.Error()}
	}
	return Extract(id)
}

// Extract pulls the version token out of a host identifier: the final
// segment after the last '.' or '/'. The segment must match the version
// grammar.
func Extract(identifier string) (domain.VersionToken, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", &domain.HostError{Reason: "host identifier is empty"}
	}
	id = strings.TrimRight(id, "./")
	last := id[strings.LastIndexAny(id, "./")+1:]
	if !remap.IsSegment(last) {
		return "", &domain.HostError{Identifier: identifier, Reason: "no version segment"}
	}
	return domain.VersionToken(last), nil
}
