package service

import (
	"context"
	"strings"
	"time"

	"github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if !req.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	e := &domain.Entry{
		ID:        s.genID.Generate().Int64(),
		Kind:      req.Kind,
		Name:      name,
		Slug:      slug.Make(name),
		Price:     req.Price,
		Quantity:  req.Quantity,
		Unit:      strings.TrimSpace(req.Unit),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		e.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, e); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}

	resp := s.toResponse(e)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	if req.Kind != "" && !req.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	filter := domain.ListRequest{
		Kind:    req.Kind,
		Name:    strings.TrimSpace(req.Name),
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	entryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, entryID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	entryID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, entryID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
		item.Slug = slug.Make(name)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		item.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		item.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEntry
		}
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, entryID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, entryID.Int64())
}

func (s *Service) Snapshot(ctx context.Context, kind domain.Kind, ids []string) (map[string]domain.Entry, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	parsed := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		parsed = append(parsed, id.Int64())
	}
	if len(parsed) == 0 {
		return map[string]domain.Entry{}, nil
	}

	items, err := s.repo.FindByIDs(ctx, s.db, kind, parsed)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]domain.Entry, len(items))
	for _, item := range items {
		snapshot[snowflake.ID(item.ID).String()] = item
	}
	return snapshot, nil
}

func (s *Service) toResponse(e *domain.Entry) domain.Response {
	resp := domain.Response{
		ID:        snowflake.ID(e.ID).String(),
		Kind:      e.Kind,
		Name:      e.Name,
		Slug:      e.Slug,
		Price:     e.Price,
		Quantity:  e.Quantity,
		Unit:      e.Unit,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	if len(e.Metadata) > 0 {
		resp.Metadata = map[string]any(e.Metadata)
	}

	return resp
}
