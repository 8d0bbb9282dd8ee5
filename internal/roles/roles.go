// Package roles resolves the effective privilege level of an actor. The
// effective role combines the persisted database role with the config
// override lists, recomputed on every interaction so that a config change
// takes effect without restarting anyone's conversation.
package roles

import (
	"context"

	"vcert/internal/config"
	"vcert/internal/store"
)

// Resolver computes effective roles and keeps persisted roles in step
// with config overrides.
type Resolver struct {
	cfg   *config.Config
	store *store.Store
}

// NewResolver builds a Resolver over the given config and store.
func NewResolver(cfg *config.Config, st *store.Store) *Resolver {
	return &Resolver{cfg: cfg, store: st}
}

// Identity carries the chat profile fields attached to an update.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Resolve records the actor (first contact creates the user row, later
// contacts refresh the profile) and returns the user together with their
// effective role. A config override that outranks the persisted role also
// upgrades the persisted role; overrides never downgrade.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (*store.User, store.Role, error) {
	user, err := r.store.UpsertUser(ctx, id.TelegramID, id.Username, id.FirstName, id.LastName)
	if err != nil {
		return nil, store.RoleUser, err
	}

	effective := user.Role
	switch {
	case r.cfg.IsAdminOverride(id.TelegramID):
		effective = store.RoleAdmin
	case r.cfg.IsOperatorOverride(id.TelegramID) && Rank(effective) < Rank(store.RoleOperator):
		effective = store.RoleOperator
	}

	if Rank(effective) > Rank(user.Role) {
		if err := r.store.SetRole(ctx, id.TelegramID, effective); err != nil {
			return nil, store.RoleUser, err
		}
		user.Role = effective
	}

	return user, effective, nil
}

// Rank orders roles for comparison; higher means more privileged.
func Rank(role store.Role) int {
	switch role {
	case store.RoleAdmin:
		return 2
	case store.RoleOperator:
		return 1
	default:
		return 0
	}
}

// Allows reports whether actual satisfies the required privilege level.
func Allows(actual, required store.Role) bool {
	return Rank(actual) >= Rank(required)
}
