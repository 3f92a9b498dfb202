package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hq/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool      *pgxpool.Pool
	tenants   *TenantRepo
	users     *UserRepo
	audit     *AuditRepo
	investors *CardRepo[domain.InvestorStage, domain.Investor]
	missions  *CardRepo[domain.MissionStage, domain.Mission]
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		tenants:   NewTenantRepo(pool),
		users:     NewUserRepo(pool),
		audit:     NewAuditRepo(pool),
		investors: NewCardRepo[domain.InvestorStage, domain.Investor](pool, domain.InvestorBoard.Name),
		missions:  NewCardRepo[domain.MissionStage, domain.Mission](pool, domain.MissionBoard.Name),
	}, nil
}

// Migrate creates any missing tables. The schema is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Ping: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository { return s.tenants }
func (s *Store) Users() domain.UserRepository     { return s.users }
func (s *Store) Audit() domain.AuditRepository    { return s.audit }

func (s *Store) Investors() domain.CardRepository[domain.InvestorStage, domain.Investor] {
	return s.investors
}

func (s *Store) Missions() domain.CardRepository[domain.MissionStage, domain.Mission] {
	return s.missions
}
