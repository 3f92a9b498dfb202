package v1_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/notify"
	"github.com/gosuda/hq/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user/role into context for DoCtx
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

func adminCtx(tenantID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, middleware.RoleAdmin)
	return ctx
}

func userCtx(tenantID, userID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants   domain.TenantRepository
	audit     domain.AuditRepository
	investors domain.CardRepository[domain.InvestorStage, domain.Investor]
	missions  domain.CardRepository[domain.MissionStage, domain.Mission]
}

func (m *mockDataStore) Tenants() domain.TenantRepository { return m.tenants }
func (m *mockDataStore) Audit() domain.AuditRepository    { return m.audit }

func (m *mockDataStore) Investors() domain.CardRepository[domain.InvestorStage, domain.Investor] {
	return m.investors
}

func (m *mockDataStore) Missions() domain.CardRepository[domain.MissionStage, domain.Mission] {
	return m.missions
}

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc        func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySlugFunc     func(ctx context.Context, slug string) (*domain.Tenant, error)
	listPaginatedFunc func(ctx context.Context, limit, offset int) ([]*domain.Tenant, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockTenantRepo) ListPaginated(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	return m.listPaginatedFunc(ctx, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry

	recordErr          error
	listByResourceFunc func(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(_ context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	return m.listByResourceFunc(ctx, tenantID, resource, resourceID)
}

func (m *mockAuditRepo) recorded() []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditEntry(nil), m.entries...)
}

// ---------------------------------------------------------------------------
// In-memory CardRepository
// ---------------------------------------------------------------------------

// memCardRepo keeps cards in memory. The err fields force failures.
type memCardRepo[S domain.Stage, P domain.Payload] struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card[S, P]

	listErr   error
	createErr error
	patchErr  func(id uuid.UUID) error
}

func newMemCardRepo[S domain.Stage, P domain.Payload](cards ...*domain.Card[S, P]) *memCardRepo[S, P] {
	r := &memCardRepo[S, P]{cards: make(map[uuid.UUID]*domain.Card[S, P])}
	for _, c := range cards {
		r.cards[c.ID] = c
	}
	return r
}

func (r *memCardRepo[S, P]) Create(_ context.Context, c *domain.Card[S, P]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	order := 0
	for _, existing := range r.cards {
		if existing.TenantID == c.TenantID && existing.Stage == c.Stage && existing.Order >= order {
			order = existing.Order + 1
		}
	}
	c.Order = order
	cp := *c
	r.cards[c.ID] = &cp
	return nil
}

func (r *memCardRepo[S, P]) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Card[S, P], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCardRepo[S, P]) List(_ context.Context, tenantID uuid.UUID) ([]*domain.Card[S, P], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Card[S, P], 0, len(r.cards))
	for _, c := range r.cards {
		if c.TenantID == tenantID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memCardRepo[S, P]) Patch(_ context.Context, tenantID, id uuid.UUID, patch domain.CardPatch[S, P]) (*domain.Card[S, P], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patchErr != nil {
		if err := r.patchErr(id); err != nil {
			return nil, err
		}
	}
	c, ok := r.cards[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	patch.Apply(c, time.Now())
	cp := *c
	return &cp, nil
}

func (r *memCardRepo[S, P]) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok || c.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(r.cards, id)
	return nil
}

func (r *memCardRepo[S, P]) get(id uuid.UUID) *domain.Card[S, P] {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.TokenPair, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, tenantID, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.TokenPair, error) {
	return m.loginFunc(ctx, tenantID, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Side channel recorders
// ---------------------------------------------------------------------------

type mockEvents struct {
	mu     sync.Mutex
	events []ws.BoardEvent
	err    error
}

func (m *mockEvents) PublishBoardEvent(_ context.Context, _ uuid.UUID, ev ws.BoardEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

type mockNotifier struct {
	mu      sync.Mutex
	changes []notify.StageChange
	err     error
}

func (m *mockNotifier) NotifyStageChange(_ context.Context, change notify.StageChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return m.err
}

func (m *mockNotifier) sent() []notify.StageChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.StageChange(nil), m.changes...)
}
