package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_UnmarshalFakeStoreShape(t *testing.T) {
	data := `{"id":1,"title":"Backpack","price":109.95,"description":"Fits 15 inch laptops",
		"category":"men's clothing","image":"https://img.test/1.jpg","rating":{"rate":3.9,"count":120}}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "Backpack", p.Title)
	assert.Equal(t, 109.95, p.Price)
	assert.Equal(t, "men's clothing", p.Category)
	assert.Equal(t, "https://img.test/1.jpg", p.Image)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 3.9, p.Rating.Rate)
	assert.Equal(t, 120, p.Rating.Count)
}

func TestProduct_UnmarshalPlatziShape(t *testing.T) {
	data := `{"id":7,"title":"Chair","price":45,"description":"Wooden",
		"category":{"id":3,"name":"Furniture"},"images":["https://img.test/a.png","https://img.test/b.png"]}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "Furniture", p.Category)
	assert.Equal(t, "https://img.test/a.png", p.Image)
	assert.Nil(t, p.Rating)
}

func TestProduct_Matches(t *testing.T) {
	p := Product{Title: "Mens Cotton Jacket", Description: "great outerwear", Category: "men's clothing"}

	assert.True(t, p.MatchesSearch("cotton"))
	assert.True(t, p.MatchesSearch("OUTERWEAR"))
	assert.True(t, p.MatchesSearch(""))
	assert.False(t, p.MatchesSearch("gold"))

	assert.True(t, p.MatchesCategory(CategoryAll))
	assert.True(t, p.MatchesCategory(""))
	assert.True(t, p.MatchesCategory("men's clothing"))
	assert.False(t, p.MatchesCategory("jewelery"))
}
