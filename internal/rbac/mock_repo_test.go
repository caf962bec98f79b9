package rbac

import (
	"context"
	"sort"
	"time"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// mockRepo is an in-memory RepositoryPort for resolver and bootstrap tests.
type mockRepo struct {
	roles      map[int64]*Role
	perms      map[string]*Permission // by codename
	rolePerms  map[int64]map[string]bool
	userRoles  map[int64]map[int64]bool // userID -> roleID -> is_active
	userLegacy map[int64]int

	nextRoleID int64
	nextPermID int64

	// failErr, when set, is returned by every query method.
	failErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		roles:      make(map[int64]*Role),
		perms:      make(map[string]*Permission),
		rolePerms:  make(map[int64]map[string]bool),
		userRoles:  make(map[int64]map[int64]bool),
		userLegacy: make(map[int64]int),
		nextRoleID: 1,
		nextPermID: 1,
	}
}

func (m *mockRepo) addRole(name string, active bool) *Role {
	role := &Role{ID: m.nextRoleID, Name: name, IsActive: active, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.nextRoleID++
	m.roles[role.ID] = role
	m.rolePerms[role.ID] = make(map[string]bool)
	return role
}

func (m *mockRepo) addPermission(codename string) *Permission {
	p := &Permission{ID: m.nextPermID, Name: codename, Codename: codename, IsActive: true, CreatedAt: time.Now()}
	m.nextPermID++
	m.perms[codename] = p
	return p
}

func (m *mockRepo) grant(roleID int64, codenames ...string) {
	for _, c := range codenames {
		if _, ok := m.perms[c]; !ok {
			m.addPermission(c)
		}
		m.rolePerms[roleID][c] = true
	}
}

func (m *mockRepo) assign(userID, roleID int64, active bool) {
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]bool)
	}
	m.userRoles[userID][roleID] = active
}

func (m *mockRepo) ActiveRoleIDs(_ context.Context, userID int64) ([]int64, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var ids []int64
	for roleID, active := range m.userRoles[userID] {
		if active && m.roles[roleID] != nil && m.roles[roleID].IsActive {
			ids = append(ids, roleID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockRepo) PermissionCodenames(_ context.Context, roleIDs []int64) ([]string, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	seen := make(map[string]bool)
	for _, roleID := range roleIDs {
		for c, granted := range m.rolePerms[roleID] {
			if granted {
				seen[c] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (m *mockRepo) RoleHasPermission(_ context.Context, roleID int64, codename string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	return m.rolePerms[roleID][codename], nil
}

func (m *mockRepo) UserHasActiveRole(_ context.Context, userID int64, roleName string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	for roleID, active := range m.userRoles[userID] {
		role := m.roles[roleID]
		if active && role != nil && role.IsActive && role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ActiveRoleByName(_ context.Context, name string) (*Role, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	for _, role := range m.roles {
		if role.Name == name && role.IsActive {
			copy := *role
			return &copy, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) LegacyRole(_ context.Context, userID int64) (int, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	role, ok := m.userLegacy[userID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return role, nil
}

func (m *mockRepo) ListRoles(_ context.Context) ([]Role, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) ListPermissions(_ context.Context) ([]Permission, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codename < out[j].Codename })
	return out, nil
}

func (m *mockRepo) EnsurePermission(_ context.Context, spec shared.PermissionSpec) (Permission, bool, error) {
	if m.failErr != nil {
		return Permission{}, false, m.failErr
	}
	if existing, ok := m.perms[spec.Codename]; ok {
		return *existing, false, nil
	}
	p := &Permission{
		ID: m.nextPermID, Name: spec.Name, Description: spec.Description,
		Category: spec.Category, Codename: spec.Codename, IsActive: true, CreatedAt: time.Now(),
	}
	m.nextPermID++
	m.perms[spec.Codename] = p
	return *p, true, nil
}

func (m *mockRepo) EnsureRole(_ context.Context, name, description string) (Role, bool, error) {
	if m.failErr != nil {
		return Role{}, false, m.failErr
	}
	for _, role := range m.roles {
		if role.Name == name {
			return *role, false, nil
		}
	}
	role := m.addRole(name, true)
	role.Description = description
	return *role, true, nil
}

func (m *mockRepo) RolePermissionCodenames(ctx context.Context, roleID int64) ([]string, error) {
	return m.PermissionCodenames(ctx, []int64{roleID})
}

func (m *mockRepo) AttachPermission(_ context.Context, roleID int64, codename string) error {
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.perms[codename]; !ok {
		return nil
	}
	if m.rolePerms[roleID] == nil {
		m.rolePerms[roleID] = make(map[string]bool)
	}
	m.rolePerms[roleID][codename] = true
	return nil
}

func (m *mockRepo) DetachPermission(_ context.Context, roleID int64, codename string) error {
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.rolePerms[roleID], codename)
	return nil
}

func (m *mockRepo) EnsureUserRole(_ context.Context, userID, roleID int64) (bool, bool, error) {
	if m.failErr != nil {
		return false, false, m.failErr
	}
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]bool)
	}
	active, exists := m.userRoles[userID][roleID]
	if !exists {
		m.userRoles[userID][roleID] = true
		return true, false, nil
	}
	if !active {
		m.userRoles[userID][roleID] = true
		return false, true, nil
	}
	return false, false, nil
}

func (m *mockRepo) DeactivateUserRoles(_ context.Context, userID int64) error {
	if m.failErr != nil {
		return m.failErr
	}
	for roleID := range m.userRoles[userID] {
		m.userRoles[userID][roleID] = false
	}
	return nil
}

func (m *mockRepo) ListUserLegacyRoles(_ context.Context) (map[int64]int, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := make(map[int64]int, len(m.userLegacy))
	for id, role := range m.userLegacy {
		out[id] = role
	}
	return out, nil
}

var _ RepositoryPort = (*mockRepo)(nil)
