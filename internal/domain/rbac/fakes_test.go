package rbac

import (
	"context"
	"strings"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
)

// fakeRunner publishes a connectionless scope and records the params it ran with.
type fakeRunner struct {
	params []tenancy.Params
}

func (r *fakeRunner) Run(ctx context.Context, p tenancy.Params, fn func(ctx context.Context) error) error {
	r.params = append(r.params, p)
	return fn(tenancy.With(ctx, tenancy.New(p, nil)))
}

// fakeTxManager counts transactions and runs fn inline.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type memBranch struct {
	id     id.ID
	code   string
	active bool
}

// memStore is an in-memory BootstrapStore.
type memStore struct {
	roles     []Role
	actions   []Action
	resources []Resource
	branches  []memBranch
	defaults  map[Triple]security.Decision
	users     map[string]AdminUser

	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		defaults: make(map[Triple]security.Decision),
		users:    make(map[string]AdminUser),
	}
}

func (s *memStore) ListRoles(ctx context.Context) ([]Role, error) {
	return append([]Role(nil), s.roles...), nil
}

func (s *memStore) CreateRole(ctx context.Context, name string) (Role, error) {
	for _, r := range s.roles {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	r := Role{ID: id.New(), Name: name}
	s.roles = append(s.roles, r)
	return r, nil
}

func (s *memStore) EnsureAction(ctx context.Context, key security.Action) (bool, error) {
	for _, a := range s.actions {
		if a.Key == key {
			return false, nil
		}
	}
	s.actions = append(s.actions, Action{ID: id.New(), Key: key, IsActive: true})
	return true, nil
}

func (s *memStore) EnsureResource(ctx context.Context, e CatalogEntry) (bool, error) {
	for _, r := range s.resources {
		if r.Key == e.Key {
			return false, nil
		}
	}
	s.resources = append(s.resources, Resource{ID: id.New(), Key: e.Key, Type: e.Type, Description: e.Description, IsActive: true})
	return true, nil
}

func (s *memStore) EnsureBranch(ctx context.Context, code, name string) (bool, error) {
	for _, b := range s.branches {
		if b.active {
			return false, nil
		}
	}
	s.branches = append(s.branches, memBranch{id: id.New(), code: code, active: true})
	return true, nil
}

func (s *memStore) BranchByCode(ctx context.Context, code string) (id.ID, error) {
	for _, b := range s.branches {
		if b.code == code && b.active {
			return b.id, nil
		}
	}
	return id.Nil(), apperror.NewNotFound("branch", code)
}

func (s *memStore) FirstActiveBranch(ctx context.Context) (id.ID, error) {
	for _, b := range s.branches {
		if b.active {
			return b.id, nil
		}
	}
	return id.Nil(), apperror.NewNotFound("branch", "active")
}

func (s *memStore) ListActiveResources(ctx context.Context) ([]Resource, error) {
	var out []Resource
	for _, r := range s.resources {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ListActiveActions(ctx context.Context) ([]Action, error) {
	var out []Action
	for _, a := range s.actions {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ExistingRoleDefaults(ctx context.Context) (map[Triple]struct{}, error) {
	out := make(map[Triple]struct{}, len(s.defaults))
	for t := range s.defaults {
		out[t] = struct{}{}
	}
	return out, nil
}

func (s *memStore) InsertRoleDefaults(ctx context.Context, rows []RoleDefault) (int, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	n := 0
	for _, r := range rows {
		if _, ok := s.defaults[r.Triple]; ok {
			continue
		}
		s.defaults[r.Triple] = r.Decision
		n++
	}
	return n, nil
}

func (s *memStore) UpsertAdminUser(ctx context.Context, u AdminUser) (bool, error) {
	old, ok := s.users[u.Username]
	if ok {
		u.ID = old.ID
	}
	s.users[u.Username] = u
	return !ok, nil
}

// defaultFor looks up the stored default by names.
func (s *memStore) defaultFor(role security.Role, resourceKey string, action security.Action) (security.Decision, Triple, bool) {
	var t Triple
	for _, r := range s.roles {
		if canon, _ := security.NormalizeRole(r.Name); canon == role {
			t.RoleID = r.ID
		}
	}
	for _, r := range s.resources {
		if r.Key == resourceKey {
			t.ResourceID = r.ID
		}
	}
	for _, a := range s.actions {
		if a.Key == action {
			t.ActionID = a.ID
		}
	}
	d, ok := s.defaults[t]
	return d, t, ok
}

// fakePolicyStore returns canned rows and records the key it was asked for.
type fakePolicyStore struct {
	rows PolicyRows
	err  error
	got  PolicyKey
}

func (s *fakePolicyStore) LookupRules(ctx context.Context, key PolicyKey) (PolicyRows, error) {
	s.got = key
	return s.rows, s.err
}

type countingRecorder struct {
	decisions []string
	runs      []string
}

func (r *countingRecorder) PolicyDecision(source, effect string) {
	r.decisions = append(r.decisions, source+":"+effect)
}

func (r *countingRecorder) BootstrapRun(outcome string) {
	r.runs = append(r.runs, outcome)
}
