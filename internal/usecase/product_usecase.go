package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Price       *float64 `json:"price"`
	Stock       *int64   `json:"stock"`
	IsActive    *bool    `json:"is_active"`
}

type ProductPage struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type ProductUsecase struct {
	products  repo.ProductRepository
	inventory repo.InventoryRepository
}

func NewProductUsecase(products repo.ProductRepository, inventory repo.InventoryRepository) *ProductUsecase {
	return &ProductUsecase{products: products, inventory: inventory}
}

// List は公開中の商品一覧。
func (u *ProductUsecase) List(ctx context.Context, q repo.ProductListQuery) (ProductPage, error) {
	q.Page, q.Limit = normalizePage(q.Page, q.Limit)

	products, total, err := u.products.ListPublic(ctx, q)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Products: products, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// GetPublic は商品詳細。非公開商品は存在しない扱い。
func (u *ProductUsecase) GetPublic(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	return p, nil
}

// Create は管理者の商品登録。
func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name is required")
	}
	if in.Price == nil || *in.Price < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be zero or positive")
	}

	p := model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       *in.Price,
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	return u.products.Create(ctx, p)
}

// Update は管理者の商品更新（部分更新）。
func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		p.Name = strings.TrimSpace(in.Name)
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be zero or positive")
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := u.products.Update(ctx, p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// SetStock は在庫数の直接設定（棚卸し用）。
func (u *ProductUsecase) SetStock(ctx context.Context, id int64, stock int64) error {
	if stock < 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "stock cannot be negative")
	}
	err := u.inventory.SetStock(ctx, id, stock)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	return err
}

// Delete は論理削除。過去注文のスナップショットには影響しない。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	err := u.products.SoftDelete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "Product not found")
	}
	return err
}
