// ABOUTME: Charm KV implementation of the pipeline store
// ABOUTME: Keeps pipelines, stages and deals as JSON records under typed key prefixes

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
)

const (
	pipelinePrefix = "pipeline:"
	stagePrefix    = "stage:"
	dealPrefix     = "deal:"
)

// Store persists pipeline data in charm KV. A move is a single
// read-modify-write of the deal record.
type Store struct {
	client *Client

	mu       sync.Mutex
	lastPull time.Time
}

var _ board.Catalog = (*Store)(nil)

func NewStore(client *Client) *Store {
	return &Store{client: client, lastPull: time.Now()}
}

func key(prefix string, id uuid.UUID) []byte {
	return []byte(prefix + id.String())
}

// pullIfStale syncs before a read when the last pull is older than the
// configured threshold.
func (s *Store) pullIfStale() {
	cfg := s.client.Config()
	if !cfg.AutoSync || cfg.StaleThreshold <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastPull) < cfg.StaleThreshold {
		return
	}
	if err := s.client.Sync(); err != nil {
		log.WithError(err).Warn("charm pull before read failed, serving local data")
		return
	}
	s.lastPull = time.Now()
}

func (s *Store) put(k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", k, err)
	}
	if err := s.client.Set(k, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", k, err)
	}
	return nil
}

func (s *Store) get(k []byte, v any) error {
	data, err := s.client.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", k, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", k, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", k, err)
	}
	return nil
}

// scan decodes every record under prefix. Undecodable records are logged
// and skipped so one bad write cannot hide a whole board.
func scan[T any](s *Store, prefix string) ([]T, error) {
	keys, err := s.client.KeysWithPrefix([]byte(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", prefix, err)
	}
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		var v T
		if err := s.get(k, &v); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			log.WithError(err).WithField("key", string(k)).Warn("skipping unreadable record")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) CreatePipeline(_ context.Context, p *models.Pipeline) error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	return s.put(key(pipelinePrefix, p.ID), p)
}

func (s *Store) ListPipelines(_ context.Context) ([]models.Pipeline, error) {
	s.pullIfStale()
	pipelines, err := scan[models.Pipeline](s, pipelinePrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pipelines, func(i, j int) bool {
		if !pipelines[i].CreatedAt.Equal(pipelines[j].CreatedAt) {
			return pipelines[i].CreatedAt.Before(pipelines[j].CreatedAt)
		}
		return pipelines[i].Name < pipelines[j].Name
	})
	return pipelines, nil
}

func (s *Store) GetPipeline(_ context.Context, id uuid.UUID) (*models.Pipeline, error) {
	var p models.Pipeline
	if err := s.get(key(pipelinePrefix, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateStage(ctx context.Context, st *models.Stage) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if _, err := s.GetPipeline(ctx, st.PipelineID); err != nil {
		return err
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	st.UpdatedAt = time.Now()
	return s.put(key(stagePrefix, st.ID), st)
}

func (s *Store) GetStage(_ context.Context, id uuid.UUID) (*models.Stage, error) {
	var st models.Stage
	if err := s.get(key(stagePrefix, id), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStages(_ context.Context, pipelineID uuid.UUID) ([]models.Stage, error) {
	s.pullIfStale()
	all, err := scan[models.Stage](s, stagePrefix)
	if err != nil {
		return nil, err
	}
	var stages []models.Stage
	for _, st := range all {
		if st.PipelineID == pipelineID {
			stages = append(stages, st)
		}
	}
	models.SortStages(stages)
	return stages, nil
}

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
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now()
	}
	deal.UpdatedAt = time.Now()
	return s.put(key(dealPrefix, deal.ID), deal)
}

func (s *Store) GetDeal(_ context.Context, id uuid.UUID) (*models.Deal, error) {
	var d models.Deal
	if err := s.get(key(dealPrefix, id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDeals returns the pipeline's deals in creation order.
func (s *Store) ListDeals(_ context.Context, pipelineID uuid.UUID) ([]models.Deal, error) {
	s.pullIfStale()
	all, err := scan[models.Deal](s, dealPrefix)
	if err != nil {
		return nil, err
	}
	var deals []models.Deal
	for _, d := range all {
		if d.PipelineID == pipelineID {
			deals = append(deals, d)
		}
	}
	sort.SliceStable(deals, func(i, j int) bool {
		if !deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].CreatedAt.Before(deals[j].CreatedAt)
		}
		return deals[i].ID.String() < deals[j].ID.String()
	})
	return deals, nil
}

func (s *Store) MoveDeal(ctx context.Context, dealID, stageID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deal, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return err
	}
	stage, err := s.GetStage(ctx, stageID)
	if err != nil {
		return err
	}
	if stage.PipelineID != deal.PipelineID {
		return fmt.Errorf("stage %s is not in pipeline %s: %w", stageID, deal.PipelineID, models.ErrNotFound)
	}

	deal.StageID = stageID
	deal.UpdatedAt = time.Now()
	return s.put(key(dealPrefix, deal.ID), deal)
}

func (s *Store) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDeal(ctx, id); err != nil {
		return err
	}
	if err := s.client.Delete(key(dealPrefix, id)); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil
}
