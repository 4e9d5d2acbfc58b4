package model

import (
	"encoding/json"
	"strings"
)

// CategoryAll is the filter sentinel matching every category.
const CategoryAll = "all"

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a read-only catalog entry.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Rating      *Rating `json:"rating,omitempty"`
}

// wireProduct accepts both the fakestoreapi shape and the Platzi shape
// (category object, images array).
type wireProduct struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
	Category    json.RawMessage `json:"category"`
	Rating      *Rating         `json:"rating"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Product{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Price:       w.Price,
		Image:       w.Image,
		Rating:      w.Rating,
	}
	if p.Image == "" && len(w.Images) > 0 {
		p.Image = w.Images[0]
	}
	p.Category = decodeCategory(w.Category)
	return nil
}

func decodeCategory(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// MatchesCategory reports whether the product belongs to category,
// treating CategoryAll and the empty string as a wildcard.
func (p Product) MatchesCategory(category string) bool {
	if category == "" || category == CategoryAll {
		return true
	}
	return p.Category == category
}

// MatchesSearch is a case-insensitive substring match on title or description.
func (p Product) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}
