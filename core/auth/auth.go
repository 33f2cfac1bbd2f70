// Package auth defines the verified-identity lookup trusted by the dispatch
// fabric at connection time.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/harsheyeditor/OneBlood/core/cluster"
)

// ErrUnknownIdentity is returned when no actor matches the credentials.
var ErrUnknownIdentity = errors.New("unknown identity")

// Actor is the identity attached to a verified connection.
type Actor struct {
	Identity string
	Role     cluster.Role
	// Verified is set for hospitals that passed verification; only verified
	// hospitals may accept requests.
	Verified bool
}

// Verifier resolves connection credentials to a verified actor.
type Verifier interface {
	Verify(ctx context.Context, token string) (Actor, error)
}

// StaticVerifier resolves tokens from an in-memory table. It backs tests and
// single-node deployments where the real identity provider is out of scope.
type StaticVerifier struct {
	mu     sync.RWMutex
	actors map[string]Actor
}

// NewStaticVerifier creates an empty verifier.
func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{actors: make(map[string]Actor)}
}

// Register associates a token with an actor.
func (v *StaticVerifier) Register(token string, a Actor) {
	v.mu.Lock()
	v.actors[token] = a
	v.mu.Unlock()
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(_ context.Context, token string) (Actor, error) {
	v.mu.RLock()
	a, ok := v.actors[token]
	v.mu.RUnlock()
	if !ok {
		return Actor{}, ErrUnknownIdentity
	}
	return a, nil
}
