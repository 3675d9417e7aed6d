package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// categoryRepositoryInMemory — простая in-memory реализация CategoryRepository.
type categoryRepositoryInMemory struct {
	store *Store
}

func (r *categoryRepositoryInMemory) List(_ context.Context) ([]domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *categoryRepositoryInMemory) Get(_ context.Context, id string) (domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	category, ok := r.store.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (r *categoryRepositoryInMemory) Create(_ context.Context, name string) (domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, category := range r.store.categories {
		if category.Name == name {
			return domain.Category{}, domain.ErrCategoryExists
		}
	}
	category := domain.Category{ID: uuid.NewString(), Name: name}
	r.store.categories[category.ID] = category
	return category, nil
}

func (r *categoryRepositoryInMemory) Update(_ context.Context, id, name string) (domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	category, ok := r.store.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	for otherID, other := range r.store.categories {
		if otherID != id && other.Name == name {
			return domain.Category{}, domain.ErrCategoryExists
		}
	}
	category.Name = name
	r.store.categories[id] = category
	return category, nil
}

func (r *categoryRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.store.categories, id)
	// Каскад связей product_categories.
	for _, rec := range r.store.products {
		kept := rec.categories[:0]
		for _, categoryID := range rec.categories {
			if categoryID != id {
				kept = append(kept, categoryID)
			}
		}
		rec.categories = kept
	}
	return nil
}

var _ domain.CategoryRepository = (*categoryRepositoryInMemory)(nil)
