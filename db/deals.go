// ABOUTME: Deal database operations
// ABOUTME: Handles deal creation, listing with tags, stage moves, and deletion
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harperreed/pipeboard/models"
)

const dealColumns = `id, pipeline_id, title, stage_id, value, win_probability, expected_close_date,
	prospect_name, prospect_email, prospect_phone, created_at, updated_at`

func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	if err := deal.Validate(); err != nil {
		return err
	}
	stage, err := s.GetStage(ctx, deal.StageID)
	if err != nil {
		return err
	}
	if deal.PipelineID == uuid.Nil {
		deal.PipelineID = stage.PipelineID
	}
	if stage.PipelineID != deal.PipelineID {
		return fmt.Errorf("stage %s is not in pipeline %s: %w", stage.ID, deal.PipelineID, models.ErrNotFound)
	}

	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	now := time.Now()
	deal.CreatedAt = now
	deal.UpdatedAt = now

	var value decimal.NullDecimal
	if deal.Value != nil {
		value = decimal.NewNullDecimal(*deal.Value)
	}
	var name, email, phone *string
	if deal.Prospect != nil {
		name, email, phone = &deal.Prospect.Name, &deal.Prospect.Email, &deal.Prospect.Phone
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO deals (`+dealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, deal.ID.String(), deal.PipelineID.String(), deal.Title, deal.StageID.String(), value,
		deal.WinProbability, deal.ExpectedCloseDate, name, email, phone, deal.CreatedAt, deal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	for i, tag := range deal.Tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO deal_tags (deal_id, position, tag) VALUES (?, ?, ?)
		`, deal.ID.String(), i, tag); err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}
	}

	return tx.Commit()
}

func scanDeal(row scanner) (models.Deal, error) {
	var d models.Deal
	var value decimal.NullDecimal
	var closeDate sql.NullTime
	var name, email, phone sql.NullString

	err := row.Scan(&d.ID, &d.PipelineID, &d.Title, &d.StageID, &value, &d.WinProbability, &closeDate,
		&name, &email, &phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return d, err
	}

	if value.Valid {
		v := value.Decimal
		d.Value = &v
	}
	if closeDate.Valid {
		t := closeDate.Time
		d.ExpectedCloseDate = &t
	}
	if name.Valid || email.Valid || phone.Valid {
		d.Prospect = &models.ProspectRef{Name: name.String, Email: email.String, Phone: phone.String}
	}
	return d, nil
}

func (s *Store) GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	d, err := scanDeal(s.db.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = ?`, id.String()))
	if err != nil {
		return nil, notFound("deal", id.String(), err)
	}

	tags, err := s.loadTags(ctx, `SELECT deal_id, tag FROM deal_tags WHERE deal_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, err
	}
	d.Tags = tags[d.ID]
	return &d, nil
}

// ListDeals returns the pipeline's deals in creation order. Boards keep this
// order inside each column.
func (s *Store) ListDeals(ctx context.Context, pipelineID uuid.UUID) ([]models.Deal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE pipeline_id = ?
		ORDER BY created_at, rowid
	`, pipelineID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}

	var deals []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}
	// Only one connection is open; release it before the tag query.
	_ = rows.Close()

	tags, err := s.loadTags(ctx, `
		SELECT t.deal_id, t.tag
		FROM deal_tags t JOIN deals d ON d.id = t.deal_id
		WHERE d.pipeline_id = ?
		ORDER BY t.deal_id, t.position
	`, pipelineID.String())
	if err != nil {
		return nil, err
	}
	for i := range deals {
		deals[i].Tags = tags[deals[i].ID]
	}
	return deals, nil
}

func (s *Store) loadTags(ctx context.Context, query string, args ...any) (map[uuid.UUID][]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := make(map[uuid.UUID][]string)
	for rows.Next() {
		var id uuid.UUID
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags[id] = append(tags[id], tag)
	}
	return tags, rows.Err()
}

// MoveDeal reassigns a deal to another stage of the same pipeline. Nothing
// else about the deal changes.
func (s *Store) MoveDeal(ctx context.Context, dealID, stageID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE deals
		SET stage_id = ?, updated_at = ?
		WHERE id = ?
		  AND EXISTS (SELECT 1 FROM stages s WHERE s.id = ? AND s.pipeline_id = deals.pipeline_id)
	`, stageID.String(), time.Now(), dealID.String(), stageID.String())
	if err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("move deal %s to stage %s: %w", dealID, stageID, models.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", id, models.ErrNotFound)
	}
	return nil
}
