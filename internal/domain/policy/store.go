package policy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const ruleColumns = `
    id, company_id::text, code, name, context, rule_type, severity, config_json, active, created_at, updated_at
`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	var config []byte
	err := row.Scan(&r.ID, &r.CompanyID, &r.Code, &r.Name, &r.Context, &r.RuleType, &r.Severity, &config, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	r.Config = config
	return r, nil
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRules(ctx context.Context, tenantID string, filter RuleFilter) ([]Rule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+ruleColumns+`
    FROM policy_rules
    WHERE tenant_id = $1
      AND ($2 = '' OR context = $2)
      AND ($3 OR active)
    ORDER BY context, code, company_id NULLS FIRST
  `, tenantID, filter.Context, filter.IncludeInactive)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

func (s *Store) ApplicableRules(ctx context.Context, tenantID, companyID, policyContext string) ([]Rule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+ruleColumns+`
    FROM policy_rules
    WHERE tenant_id = $1
      AND context = $3
      AND active
      AND (company_id IS NULL OR company_id::text = $2)
    ORDER BY code, company_id NULLS FIRST
  `, tenantID, companyID, policyContext)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

func (s *Store) GetRule(ctx context.Context, tenantID, ruleID string) (Rule, error) {
	return scanRule(s.DB.QueryRow(ctx, `SELECT `+ruleColumns+` FROM policy_rules WHERE tenant_id = $1 AND id = $2`, tenantID, ruleID))
}

func (s *Store) CreateRule(ctx context.Context, tenantID string, in RuleInput) (Rule, error) {
	return scanRule(s.DB.QueryRow(ctx, `
    INSERT INTO policy_rules (tenant_id, company_id, code, name, context, rule_type, severity, config_json, active)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING `+ruleColumns,
		tenantID, in.CompanyID, in.Code, in.Name, in.Context, in.RuleType, in.Severity, []byte(in.Config), in.Active))
}

func (s *Store) UpdateRule(ctx context.Context, tenantID, ruleID string, in RuleInput) (Rule, error) {
	return scanRule(s.DB.QueryRow(ctx, `
    UPDATE policy_rules
    SET company_id = $3, code = $4, name = $5, context = $6, rule_type = $7,
        severity = $8, config_json = $9, active = $10, updated_at = now()
    WHERE tenant_id = $1 AND id = $2
    RETURNING `+ruleColumns,
		tenantID, ruleID, in.CompanyID, in.Code, in.Name, in.Context, in.RuleType, in.Severity, []byte(in.Config), in.Active))
}

func (s *Store) SetRuleActive(ctx context.Context, tenantID, ruleID string, active bool) error {
	tag, err := s.DB.Exec(ctx, `UPDATE policy_rules SET active = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`, tenantID, ruleID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (s *Store) InsertOverrides(ctx context.Context, tenantID, policyContext, entityType, entityID, actorUserID string, overrides []Override) error {
	if len(overrides) == 0 {
		return nil
	}
	var actor any
	if actorUserID != "" {
		actor = actorUserID
	}
	batch := &pgx.Batch{}
	for _, o := range overrides {
		batch.Queue(`
      INSERT INTO policy_overrides (tenant_id, rule_id, context, entity_type, entity_id, justification, actor_user_id)
      VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, tenantID, o.RuleID, policyContext, entityType, entityID, o.Justification, actor)
	}
	return s.DB.SendBatch(ctx, batch).Close()
}
