// Package synccontext records why a mutation is happening: a human edit, an
// outbound push to a provider, or an inbound pull from one. Domain listeners
// consult it to avoid echoing integration traffic back to its source.
//
// A State is confined to one goroutine (one worker run or one request) and is
// carried through context.Context. It is not safe for concurrent use.
package synccontext

import (
	"context"
	"strings"
)

type Mode string

const (
	ModeUI   Mode = "ui"
	ModePush Mode = "push"
	ModePull Mode = "pull"
)

func ParseMode(raw string) (Mode, bool) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case ModeUI, ModePush, ModePull:
		return mode, true
	default:
		return "", false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Snapshot is the observable value of a State.
type Snapshot struct {
	Mode     Mode
	Provider string
}

func DefaultSnapshot() Snapshot {
	return Snapshot{Mode: ModeUI}
}

// IsIntegrationTrafficFor reports whether the current change originates from
// (or is being sent to) provider, in which case it must not be queued back to
// that same provider.
func (s Snapshot) IsIntegrationTrafficFor(provider string) bool {
	if s.Mode == ModeUI || s.Mode == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Provider), strings.TrimSpace(provider))
}

type State struct {
	current Snapshot
}

func NewState() *State {
	return &State{current: DefaultSnapshot()}
}

func (s *State) Current() Snapshot {
	if s == nil {
		return DefaultSnapshot()
	}
	return s.current
}

// Enter switches the state and returns a Scope that puts the previous value
// back. Callers defer scope.Restore() right away.
func (s *State) Enter(mode Mode, provider string) *Scope {
	scope := &Scope{state: s, previous: s.current}
	s.current = Snapshot{
		Mode:     mode,
		Provider: strings.ToLower(strings.TrimSpace(provider)),
	}
	return scope
}

type Scope struct {
	state    *State
	previous Snapshot
	restored bool
}

// Restore is idempotent: only the first call changes the state.
func (sc *Scope) Restore() {
	if sc == nil || sc.restored {
		return
	}
	sc.restored = true
	sc.state.current = sc.previous
}

type stateKey struct{}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

// FromContext returns the State carried by ctx, or nil.
func FromContext(ctx context.Context) *State {
	if ctx == nil {
		return nil
	}
	state, _ := ctx.Value(stateKey{}).(*State)
	return state
}

// Current returns the snapshot visible from ctx; ui when none was entered.
func Current(ctx context.Context) Snapshot {
	return FromContext(ctx).Current()
}

// Enter makes sure ctx carries a State and switches it. The returned context
// must be used for the work done inside the scope.
func Enter(ctx context.Context, mode Mode, provider string) (context.Context, *Scope) {
	state := FromContext(ctx)
	if state == nil {
		state = NewState()
		ctx = WithState(ctx, state)
	}
	return ctx, state.Enter(mode, provider)
}

// Run executes fn inside a scope and restores the previous value on every
// exit path, panics included.
func Run(ctx context.Context, mode Mode, provider string, fn func(ctx context.Context) error) error {
	scopedCtx, scope := Enter(ctx, mode, provider)
	defer scope.Restore()
	return fn(scopedCtx)
}
