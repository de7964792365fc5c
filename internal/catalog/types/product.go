package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Image is a product or category image reference.
type Image struct {
	ID        ID     `json:"image_id,omitempty"`
	URL       string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

// Category is referenced by products through CategoryID.
type Category struct {
	ID          ID      `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Images      []Image `json:"images,omitempty"`
}

// Product is a catalog record. The last three fields are derived per request
// from the promotions that apply to it and are never sent back to the backend.
type Product struct {
	ID            ID              `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    ID              `json:"category_id"`
	CategoryName  string          `json:"category_name,omitempty"`
	Description   string          `json:"description,omitempty"`
	Specification string          `json:"specification,omitempty"`
	Images        []Image         `json:"images"`

	HasPromotion       bool            `json:"has_promotion"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"`
}

// UnmarshalJSON accepts the alternate keys older endpoints use:
// "category" for the category id, "product_name" for the name and a nested
// "detail.specification".
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		Category    *ID    `json:"category"`
		ProductName string `json:"product_name"`
		Detail      *struct {
			Specification string `json:"specification"`
		} `json:"detail"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshal product: %w", err)
	}
	if p.CategoryID.IsZero() && aux.Category != nil {
		p.CategoryID = *aux.Category
	}
	if p.Name == "" {
		p.Name = aux.ProductName
	}
	if p.Specification == "" && aux.Detail != nil {
		p.Specification = aux.Detail.Specification
	}
	return nil
}

// PrimaryImage returns the image flagged primary, else the first image.
func (p Product) PrimaryImage() (Image, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}

// NormalizeImages keeps the primary flag on the first flagged image only.
// The result is never nil.
func NormalizeImages(images []Image) []Image {
	if len(images) == 0 {
		return []Image{}
	}
	out := make([]Image, len(images))
	seen := false
	for i, img := range images {
		if img.IsPrimary {
			if seen {
				img.IsPrimary = false
			}
			seen = true
		}
		out[i] = img
	}
	return out
}

// ClearDiscount resets the derived fields to "no promotion".
func (p Product) ClearDiscount() Product {
	p.HasPromotion = false
	p.DiscountPercentage = decimal.Zero
	p.DiscountedPrice = p.Price
	return p
}
