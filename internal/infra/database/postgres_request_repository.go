package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"income_statement_service/internal/domain/request"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrRequestNotFound = fmt.Errorf("statement request not found")
var ErrDuplicateRequest = fmt.Errorf("duplicate statement request (case_ref, org_number, income_basis_date, first_absence_date)")

const requestColumns = `id, uuid, case_ref, org_number, actor_id, benefit_type, kind, status,
               income_basis_date, first_absence_date, portal_case_id, portal_task_id, dialog_id, created_at, updated_at`

type PostgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) Create(ctx context.Context, req *request.Request) error {
	query := `INSERT INTO statement_requests
               (uuid, case_ref, org_number, actor_id, benefit_type, kind, status, income_basis_date, first_absence_date)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		req.UUID, req.CaseRef, req.OrgNumber, req.ActorID, req.BenefitType, req.Kind, req.Status,
		req.IncomeBasisDate, req.FirstAbsenceDate,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		// The partial unique index over the dedup tuple turns a concurrent
		// double-create into a conflict instead of a silent duplicate.
		if strings.Contains(err.Error(), "statement_requests_tuple_unique") {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("error creating statement request: %w", err)
	}
	return nil
}

func (r *PostgresRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM statement_requests WHERE uuid = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting statement request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted statement request: %w", err)
	}
	if affected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *PostgresRequestRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM statement_requests WHERE uuid = $1`
	req := &request.Request{}
	err := scanRequest(r.db.QueryRowContext(ctx, query, id), req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("error getting statement request by UUID: %w", err)
	}
	return req, nil
}

func (r *PostgresRequestRepository) FindExact(ctx context.Context, caseRef, orgNumber string, incomeBasisDate, firstAbsenceDate time.Time) (*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM statement_requests
               WHERE case_ref = $1 AND org_number = $2 AND income_basis_date = $3 AND first_absence_date = $4
               ORDER BY created_at DESC LIMIT 1`
	req := &request.Request{}
	err := scanRequest(r.db.QueryRowContext(ctx, query, caseRef, orgNumber, incomeBasisDate, firstAbsenceDate), req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("error finding statement request by tuple: %w", err)
	}
	return req, nil
}

func (r *PostgresRequestRepository) ListByCaseRef(ctx context.Context, caseRef string) ([]*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM statement_requests WHERE case_ref = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, caseRef)
	if err != nil {
		return nil, fmt.Errorf("error querying statement requests by case ref: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *PostgresRequestRepository) ListOpen(ctx context.Context, f request.OpenFilter) ([]*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM statement_requests WHERE status = $1 AND case_ref = $2`
	args := []interface{}{request.StatusUnderProcessing, f.CaseRef}
	if f.OrgNumber != "" {
		args = append(args, f.OrgNumber)
		query += fmt.Sprintf(" AND org_number = $%d", len(args))
	}
	if f.IncomeBasisDate != nil {
		args = append(args, *f.IncomeBasisDate)
		query += fmt.Sprintf(" AND income_basis_date = $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying open statement requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *PostgresRequestRepository) ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM statement_requests
               WHERE status = $1 AND created_at < $2
               ORDER BY created_at ASC` // Process older ones first
	rows, err := r.db.QueryContext(ctx, query, request.StatusUnderProcessing, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying stale open statement requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *PostgresRequestRepository) SetPortalCaseID(ctx context.Context, id uuid.UUID, caseID string) error {
	return r.setColumn(ctx, id, "portal_case_id", caseID)
}

func (r *PostgresRequestRepository) SetPortalTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	return r.setColumn(ctx, id, "portal_task_id", taskID)
}

func (r *PostgresRequestRepository) SetDialogID(ctx context.Context, id uuid.UUID, dialogID string) error {
	return r.setColumn(ctx, id, "dialog_id", dialogID)
}

func (r *PostgresRequestRepository) SetFirstAbsenceDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	return r.setColumn(ctx, id, "first_absence_date", date)
}

func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status request.Status) error {
	return r.setColumn(ctx, id, "status", status)
}

func (r *PostgresRequestRepository) setColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	query := `UPDATE statement_requests SET ` + column + ` = $1, updated_at = NOW() WHERE uuid = $2 RETURNING updated_at`
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, value, id).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRequestNotFound
		}
		return fmt.Errorf("error updating %s on statement request: %w", column, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner, req *request.Request) error {
	return row.Scan(
		&req.ID, &req.UUID, &req.CaseRef, &req.OrgNumber, &req.ActorID, &req.BenefitType, &req.Kind,
		&req.Status, &req.IncomeBasisDate, &req.FirstAbsenceDate,
		&req.PortalCaseID, &req.PortalTaskID, &req.DialogID, &req.CreatedAt, &req.UpdatedAt,
	)
}

// Helper to scan multiple rows
func scanRequests(rows *sql.Rows) ([]*request.Request, error) {
	requests := make([]*request.Request, 0)
	for rows.Next() {
		req := &request.Request{}
		if err := scanRequest(rows, req); err != nil {
			return nil, fmt.Errorf("error scanning statement request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement request rows: %w", err)
	}
	return requests, nil
}
