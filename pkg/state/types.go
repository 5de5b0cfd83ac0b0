package state

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrETagMismatch reports a write based on a stale snapshot.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrNoLayers reports a Resolve call where no scope had a record.
	ErrNoLayers = errors.New("state: no layers found")
)

// Recommended priorities for common layering patterns. Higher numbers win.
const (
	ScopePrioritySystem = 100
	ScopePriorityTenant = 200
	ScopePriorityOrg    = 300
	ScopePriorityTeam   = 400
	ScopePriorityUser   = 500
)

// Scope models a named precedence bucket (system, tenant, user, etc.).
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures a Scope on creation.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// SystemScope returns the canonical system scope.
func SystemScope() Scope {
	return NewScope("system", ScopePrioritySystem, WithScopeLabel("System Defaults"))
}

// TenantScope returns the canonical scope for tenant id.
func TenantScope(id string) Scope {
	return idScope("tenant", "Tenant", ScopePriorityTenant, id)
}

// OrgScope returns the canonical scope for organization id.
func OrgScope(id string) Scope {
	return idScope("org", "Organization", ScopePriorityOrg, id)
}

// TeamScope returns the canonical scope for team id.
func TeamScope(id string) Scope {
	return idScope("team", "Team", ScopePriorityTeam, id)
}

// UserScope returns the canonical scope for user id.
func UserScope(id string) Scope {
	return idScope("user", "User", ScopePriorityUser, id)
}

func idScope(name, label string, priority int, id string) Scope {
	return NewScope(name, priority,
		WithScopeLabel(label),
		WithScopeMetadata(map[string]any{name + "_id": id}),
	)
}

func copyMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Ref identifies one persisted params document for one domain and scope.
type Ref struct {
	Domain string
	Scope  Scope
}

// Identifier returns the canonical storage key for the ref.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	switch r.Scope.Name {
	case "system":
		return fmt.Sprintf("system/%s", r.Domain), nil
	case "tenant", "org", "team", "user":
		metadataKey := r.Scope.Name + "_id"
		id, _ := r.Scope.Metadata[metadataKey].(string)
		if id == "" {
			return "", fmt.Errorf("state: missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, id, r.Domain), nil
	default:
		return "", fmt.Errorf("state: unsupported scope name %q", r.Scope.Name)
	}
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// RawStore loads and saves the raw params document of a single Ref. An
// empty raw string is the absent (NULL) document. Save rejects a non-empty
// meta.ETag that does not match the stored one with ErrETagMismatch and
// returns the metadata of the new snapshot.
type RawStore interface {
	Load(ctx context.Context, ref Ref) (raw string, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, raw string, meta Meta) (Meta, error)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
