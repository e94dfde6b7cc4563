package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrInvalidRating is returned when a star value falls outside 1..5.
var ErrInvalidRating = errors.New("star rating must be between 1 and 5")

// ErrEmptyTitle is returned when a catalog entry is created or updated
// without a title.
var ErrEmptyTitle = errors.New("title required")

// Service owns catalog mutations: create/update/delete entries and
// per-user ratings. Reads go straight to the Repository.
type Service struct {
	repo Repository
}

// NewService creates a catalog Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns products matching the allow-listed filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a catalog entry, deriving the slug from the title.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Slug = Slugify(p.Title)
	return s.repo.Create(ctx, p)
}

// Update rewrites an existing catalog entry, re-deriving the slug.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	p.Slug = Slugify(p.Title)
	return s.repo.Update(ctx, p)
}

// Delete removes a catalog entry by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Rate records the user's star rating for a product and returns the
// recomputed rounded average. A user re-rating the same product replaces
// their previous rating.
func (s *Service) Rate(ctx context.Context, productID, userID string, star int, comment string) (int, error) {
	if star < 1 || star > 5 {
		return 0, ErrInvalidRating
	}
	return s.repo.SetRating(ctx, productID, Rating{
		PostedBy: userID,
		Star:     star,
		Comment:  comment,
	})
}

// Slugify lowercases the title and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
