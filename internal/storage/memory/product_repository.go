package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// productRepositoryInMemory — простая in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	store *Store
}

func (r *productRepositoryInMemory) List(_ context.Context) ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, rec := range r.store.products {
		result = append(result, r.store.productView(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *productRepositoryInMemory) Get(_ context.Context, id string) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return r.store.productView(rec), nil
}

func (r *productRepositoryInMemory) Create(_ context.Context, in domain.CreateProduct) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.products {
		if rec.product.Name == in.Name {
			return domain.Product{}, domain.ErrProductExists
		}
	}
	for _, categoryID := range in.Categories {
		if _, ok := r.store.categories[categoryID]; !ok {
			return domain.Product{}, domain.ErrCategoryNotFound
		}
	}

	rec := &productRecord{
		product: domain.Product{
			ID:    uuid.NewString(),
			Name:  in.Name,
			Stock: in.Stock,
			Price: in.Price,
		},
		categories: append([]string(nil), in.Categories...),
	}
	r.store.products[rec.product.ID] = rec
	return r.store.productView(rec), nil
}

func (r *productRepositoryInMemory) Update(_ context.Context, id string, in domain.UpdateProduct) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if in.Name != nil {
		for otherID, other := range r.store.products {
			if otherID != id && other.product.Name == *in.Name {
				return domain.Product{}, domain.ErrProductExists
			}
		}
		rec.product.Name = *in.Name
	}
	if in.Stock != nil {
		rec.product.Stock = *in.Stock
	}
	if in.Price != nil {
		rec.product.Price = *in.Price
	}
	if in.Categories != nil {
		for _, categoryID := range *in.Categories {
			if _, ok := r.store.categories[categoryID]; !ok {
				return domain.Product{}, domain.ErrCategoryNotFound
			}
		}
		rec.categories = append([]string(nil), *in.Categories...)
	}
	return r.store.productView(rec), nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *productRepositoryInMemory) SetImage(_ context.Context, id string, url *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	rec.product.Image = url
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
