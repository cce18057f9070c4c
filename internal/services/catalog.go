package services

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/search"
)

type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, owner ObjectID, name string) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(name), Owner: owner}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, q models.PageQuery) (models.Page[models.Category], error) {
	page, err := s.categories.List(ctx, q)
	if err != nil {
		return models.Page[models.Category]{}, errors.Wrap(err, "list categories")
	}
	return page.WithLabels(models.CategoryLabels), nil
}

func (s *CategoryService) Get(ctx context.Context, id ObjectID) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id ObjectID, name string) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	c.Name = strings.TrimSpace(name)
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, notFound(err, "Category not found")
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id ObjectID) error {
	return notFound(s.categories.Delete(ctx, id), "Category not found or already deleted")
}

type ProductInput struct {
	Category    ObjectID
	Name        string
	Description string
	Price       float64
	Stock       int
	MainImage   *multipart.FileHeader
	SubImages   []*multipart.FileHeader
}

// ProductPatch carries the fields of an update; nil fields keep the stored
// value. New sub images are appended to the existing ones.
type ProductPatch struct {
	Category    *ObjectID
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	MainImage   *multipart.FileHeader
	SubImages   []*multipart.FileHeader
}

type ProductService struct {
	products   ProductStore
	categories CategoryStore
	storage    FileStorage
	index      ProductIndex
	async      Async
	lg         *zap.Logger
}

func NewProductService(products ProductStore, categories CategoryStore, storage FileStorage, index ProductIndex, async Async, lg *zap.Logger) *ProductService {
	return &ProductService{products: products, categories: categories, storage: storage, index: index, async: async, lg: lg}
}

func (s *ProductService) requireCategory(ctx context.Context, id ObjectID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return notFound(err, "Category is not exist")
	}
	return nil
}

// upload stores files concurrently. On failure the files already stored are
// removed again.
func (s *ProductService) upload(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			url, err := s.storage.Upload(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "upload %s", f.Filename)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(urls...)
		return nil, err
	}
	return urls, nil
}

// discard deletes stored files in the background.
func (s *ProductService) discard(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		s.async("delete image", func(ctx context.Context) error {
			return s.storage.Delete(ctx, url)
		})
	}
}

func (s *ProductService) reindex(p models.Product) {
	s.async("index product", func(ctx context.Context) error {
		return s.index.Index(ctx, p)
	})
}

func (s *ProductService) Create(ctx context.Context, owner ObjectID, in ProductInput) (*models.Product, error) {
	if err := s.requireCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if in.MainImage == nil {
		return nil, apperr.Validation("Main image is not available")
	}
	if len(in.SubImages) > models.MaxSubImageCount {
		return nil, apperr.Validation(
			"For product the maximum count of sub images is 4",
			apperr.FieldError{Field: "subImages", Message: "at most 4 sub images are allowed"},
		)
	}

	urls, err := s.upload(ctx, append([]*multipart.FileHeader{in.MainImage}, in.SubImages...))
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Category:    in.Category,
		Name:        in.Name,
		Description: in.Description,
		MainImage:   urls[0],
		SubImages:   subImages(urls[1:]),
		Price:       in.Price,
		Stock:       in.Stock,
		Owner:       owner,
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.discard(urls...)
		return nil, errors.Wrap(err, "create product")
	}
	s.reindex(*p)
	return p, nil
}

func subImages(urls []string) []models.SubImage {
	out := make([]models.SubImage, len(urls))
	for i, url := range urls {
		out[i] = models.SubImage{ID: primitive.NewObjectID(), URL: url}
	}
	return out
}

func (s *ProductService) Update(ctx context.Context, id ObjectID, patch ProductPatch) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	if patch.Category != nil {
		if err := s.requireCategory(ctx, *patch.Category); err != nil {
			return nil, err
		}
		p.Category = *patch.Category
	}

	uploadedSubs, err := s.upload(ctx, patch.SubImages)
	if err != nil {
		return nil, err
	}
	if existing := len(p.SubImages); existing+len(uploadedSubs) > models.MaxSubImageCount {
		s.discard(uploadedSubs...)
		return nil, apperr.Validation(
			"For product the maximum count of sub images is 4 and there are already " +
				strconv.Itoa(existing) + " sub images are attached to the product",
		)
	}

	previousMain := p.MainImage
	if patch.MainImage != nil {
		urls, err := s.upload(ctx, []*multipart.FileHeader{patch.MainImage})
		if err != nil {
			s.discard(uploadedSubs...)
			return nil, err
		}
		p.MainImage = urls[0]
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	p.SubImages = append(p.SubImages, subImages(uploadedSubs)...)

	if err := s.products.Update(ctx, p); err != nil {
		return nil, notFound(err, "Product not found")
	}
	if p.MainImage != previousMain {
		s.discard(previousMain)
	}
	s.reindex(*p)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found or error while deleting product")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return nil, notFound(err, "Product not found or error while deleting product")
	}

	urls := []string{p.MainImage}
	for _, img := range p.SubImages {
		urls = append(urls, img.URL)
	}
	s.discard(urls...)
	s.async("unindex product", func(ctx context.Context) error {
		return s.index.Delete(ctx, id)
	})
	return p, nil
}

func (s *ProductService) List(ctx context.Context, q models.PageQuery) (models.Page[models.Product], error) {
	page, err := s.products.List(ctx, models.ProductFilter{}, q)
	if err != nil {
		return models.Page[models.Product]{}, errors.Wrap(err, "list products")
	}
	return page.WithLabels(models.ProductLabels), nil
}

func (s *ProductService) Get(ctx context.Context, id ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	return p, nil
}

func (s *ProductService) ListByCategory(ctx context.Context, category ObjectID, q models.PageQuery) (models.Page[models.Product], error) {
	if _, err := s.categories.FindByID(ctx, category); err != nil {
		return models.Page[models.Product]{}, notFound(err, "Category not found")
	}
	page, err := s.products.List(ctx, models.ProductFilter{Category: &category}, q)
	if err != nil {
		return models.Page[models.Product]{}, errors.Wrap(err, "list products")
	}
	return page.WithLabels(models.ProductLabels), nil
}

func (s *ProductService) RemoveSubImage(ctx context.Context, productID, subImageID ObjectID) (*models.Product, error) {
	before, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Product does not exist")
	}
	p, err := s.products.PullSubImage(ctx, productID, subImageID)
	if err != nil {
		return nil, notFound(err, "Product does not exist")
	}
	for _, img := range before.SubImages {
		if img.ID == subImageID {
			s.discard(img.URL)
		}
	}
	s.reindex(*p)
	return p, nil
}

// Search returns products matching query in relevance order.
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Search query is required")
	}
	ids, err := s.index.Search(ctx, query, limit)
	if errors.Is(err, search.ErrDisabled) {
		return nil, apperr.Unavailable("Product search is not enabled")
	}
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	byID := make(map[ObjectID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
