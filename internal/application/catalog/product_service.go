package catalog

import (
	"context"
	"strings"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductService handles product business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product. SKUs are unique.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	existing, err := s.productRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewConflictError("product with SKU %s already exists", strings.ToUpper(strings.TrimSpace(req.SKU)))
	}

	product, err := catalog.NewProduct(req.SKU, req.Name, req.Unit, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// Update changes name, unit, list price and optionally the active flag
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Name, req.Unit, req.UnitPrice); err != nil {
		return nil, err
	}
	if req.Active != nil && *req.Active != product.Active {
		if *req.Active {
			err = product.Activate()
		} else {
			err = product.Deactivate()
		}
		if err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search
	if filter.Active != nil {
		f.Filters["active"] = *filter.Active
	}

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

func (s *ProductService) publishDomainEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, product.GetDomainEvents()...)
	}
	product.ClearDomainEvents()
}
