// Package services – IdeaService
//
// This file implements the IdeaService, which owns the submission side of the
// idea lifecycle: submitting, editing and withdrawing ideas, and reading them
// back through the aggregate view. It enforces ownership and the pending-only
// rule for owner changes, validates text and category references, and runs
// every multi-row write in a single transaction so a failure leaves no trace.
//
// Observability: public methods are OpenTelemetry-instrumented; domain
// counters are incremented only after a successful commit.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/observability"
	"github.com/tbourn/go-ideas-backend/internal/ranking"
	"github.com/tbourn/go-ideas-backend/internal/repo"
	"github.com/tbourn/go-ideas-backend/internal/search"
	"github.com/tbourn/go-ideas-backend/internal/utils"
)

// IdeaInput is the owner-editable part of an idea. Categories hold catalog
// ids or names; they replace the idea's whole tag set.
type IdeaInput struct {
	Title       string
	Description string
	Categories  []string
}

// ListQuery selects, filters and orders a listing.
type ListQuery struct {
	Category string          // catalog id or name; "" or "all" for every category
	Search   string          // case-insensitive substring over title and description
	Status   []domain.Status // optional narrowing; never widens visibility
	OwnerID  string          // optional narrowing to one owner
	Sort     ranking.Policy  // "" means ranking.DefaultPolicy
	Page     int
	PageSize int
}

// Listing page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// IdeaService implements idea submission, owner edits and reads.
type IdeaService struct {
	// DB is the database handle used for all idea operations.
	DB *gorm.DB
	// Catalog validates category references.
	Catalog *catalog.Catalog
	// Limits caps title and description length.
	Limits Limits
	// Now is the clock; tests may pin it.
	Now func() time.Time
}

// NewIdeaService constructs an IdeaService with default limits and the
// wall clock.
func NewIdeaService(db *gorm.DB, cat *catalog.Catalog) *IdeaService {
	return &IdeaService{DB: db, Catalog: cat, Limits: DefaultLimits, Now: time.Now}
}

var tracer = otel.Tracer("services")

// Submit creates a pending idea owned by the caller together with its
// category tags. The caller's profile row is created on first write.
func (s *IdeaService) Submit(ctx context.Context, caller domain.Caller, in IdeaInput) (*domain.IdeaView, error) {
	ctx, span := tracer.Start(ctx, "IdeaService.Submit",
		trace.WithAttributes(attribute.String("user.id", caller.UserID)))
	defer span.End()

	if caller.Anonymous() {
		return nil, ErrAuthRequired
	}
	title, desc, cats, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var view *domain.IdeaView
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		if err := repo.EnsureProfile(ctx, tx, caller.UserID, caller.Username, now); err != nil {
			return fmt.Errorf("ensure profile: %w", err)
		}
		idea, err := repo.CreateIdea(ctx, tx, caller.UserID, title, desc, now)
		if err != nil {
			return fmt.Errorf("create idea: %w", err)
		}
		if err := repo.AddIdeaCategories(ctx, tx, idea.ID, cats); err != nil {
			return fmt.Errorf("tag idea: %w", err)
		}
		view, err = repo.GetIdeaView(ctx, tx, idea.ID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("idea.id", view.ID))
	observability.IdeasSubmitted.Inc()
	return view, nil
}

// Edit replaces title, description and categories of a pending idea. Only
// the owner may edit, and only while the idea is pending.
func (s *IdeaService) Edit(ctx context.Context, caller domain.Caller, id string, in IdeaInput) (*domain.IdeaView, error) {
	ctx, span := tracer.Start(ctx, "IdeaService.Edit",
		trace.WithAttributes(attribute.String("idea.id", id), attribute.String("user.id", caller.UserID)))
	defer span.End()

	var view *domain.IdeaView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := getIdea(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkOwnerPending(caller, idea); err != nil {
			return err
		}
		title, desc, cats, err := s.validate(in)
		if err != nil {
			return err
		}
		ok, err := repo.UpdatePendingIdea(ctx, tx, id, caller.UserID, title, desc, s.now())
		if err != nil {
			return fmt.Errorf("update idea: %w", err)
		}
		if !ok {
			// a moderator decided between our read and our write
			return ErrIdeaFrozen
		}
		if err := repo.ReplaceIdeaCategories(ctx, tx, id, cats); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
		view, err = repo.GetIdeaView(ctx, tx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return view, nil
}

// Delete withdraws a pending idea. Tags, votes and comments attached to it
// are removed in the same transaction.
func (s *IdeaService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	ctx, span := tracer.Start(ctx, "IdeaService.Delete",
		trace.WithAttributes(attribute.String("idea.id", id), attribute.String("user.id", caller.UserID)))
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := getIdea(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkOwnerPending(caller, idea); err != nil {
			return err
		}
		ok, err := repo.DeletePendingIdea(ctx, tx, id, caller.UserID)
		if err != nil {
			return fmt.Errorf("delete idea: %w", err)
		}
		if !ok {
			return ErrIdeaFrozen
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	observability.IdeasDeleted.Inc()
	return nil
}

// Get returns the aggregate view of one idea if the caller may see it.
func (s *IdeaService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.IdeaView, error) {
	ctx, span := tracer.Start(ctx, "IdeaService.Get",
		trace.WithAttributes(attribute.String("idea.id", id)))
	defer span.End()

	var view *domain.IdeaView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.GetIdeaView(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrIdeaNotFound
		}
		if err != nil {
			return err
		}
		if !caller.CanSee(&v.Idea) {
			return ErrIdeaHidden
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// List returns one page of the ideas visible to the caller, filtered by
// category and free text and then ranked.
func (s *IdeaService) List(ctx context.Context, caller domain.Caller, q ListQuery) ([]domain.IdeaView, utils.Page, error) {
	page, size := utils.ClampPage(q.Page, q.PageSize, DefaultPageSize, MaxPageSize)
	ctx, span := tracer.Start(ctx, "IdeaService.List",
		trace.WithAttributes(
			attribute.String("sort", string(q.Sort)),
			attribute.String("category", q.Category),
			attribute.Int("page", page),
			attribute.Int("page_size", size),
		))
	defer span.End()

	policy := q.Sort
	if policy == "" {
		policy = ranking.DefaultPolicy
	}
	if policy != ranking.Popular && policy != ranking.Newest {
		return nil, utils.Page{}, validationf("unknown sort %q", q.Sort)
	}
	criteria := ranking.Criteria{Query: search.New(q.Search)}
	if q.Category != "" && q.Category != "all" {
		cat, ok := s.Catalog.Lookup(q.Category)
		if !ok {
			return nil, utils.Page{}, validationf("unknown category %q", q.Category)
		}
		criteria.Category = cat.ID
	}
	for _, st := range q.Status {
		if !st.Valid() {
			return nil, utils.Page{}, ErrUnknownStatus
		}
	}

	var rows []domain.IdeaView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = repo.ListIdeaViews(ctx, tx, repo.ViewFilter{
			Viewer:  caller,
			Status:  q.Status,
			OwnerID: q.OwnerID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, utils.Page{}, err
	}

	ranked := ranking.Rank(rows, criteria, policy)
	items, meta := utils.Paginate(ranked, page, size)
	span.SetAttributes(attribute.Int("result.total", meta.Total))
	return items, meta, nil
}

// validate normalizes and checks an IdeaInput.
func (s *IdeaService) validate(in IdeaInput) (string, string, []domain.CategoryID, error) {
	if err := checkText(in.Title, in.Description); err != nil {
		return "", "", nil, err
	}
	title := normalizeTitle(in.Title)
	desc := normalizeBody(in.Description)
	switch {
	case title == "":
		return "", "", nil, ErrEmptyTitle
	case desc == "":
		return "", "", nil, ErrEmptyDescription
	case tooLong(title, s.Limits.MaxTitleRunes):
		return "", "", nil, ErrTitleTooLong
	case tooLong(desc, s.Limits.MaxDescriptionRunes):
		return "", "", nil, ErrDescTooLong
	}
	cats, err := s.Catalog.Resolve(in.Categories)
	if err != nil {
		return "", "", nil, validationf("%v", err)
	}
	return title, desc, cats, nil
}

func (s *IdeaService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// getIdea loads an idea and maps absence to ErrIdeaNotFound.
func getIdea(ctx context.Context, tx *gorm.DB, id string) (*domain.Idea, error) {
	idea, err := repo.GetIdea(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load idea: %w", err)
	}
	return idea, nil
}

// getVisibleIdea loads an idea and checks the caller may see it.
func getVisibleIdea(ctx context.Context, tx *gorm.DB, caller domain.Caller, id string) (*domain.Idea, error) {
	idea, err := getIdea(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanSee(idea) {
		return nil, ErrIdeaHidden
	}
	return idea, nil
}

func checkOwnerPending(caller domain.Caller, idea *domain.Idea) error {
	if !caller.Owns(idea.UserID) {
		return ErrNotOwner
	}
	if idea.Status != domain.StatusPending {
		return ErrIdeaFrozen
	}
	return nil
}
