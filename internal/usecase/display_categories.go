package usecase

import "strings"

// displayCategory groups report rows into coarse shopper-facing buckets.
// This is presentation-only and separate from the engine's rule taxonomy.
type displayCategory struct {
	name     string
	keywords []string
}

var displayCategories = []displayCategory{
	{"Rice & Grains", []string{"rice", "basmati", "quinoa", "oats", "barley", "wheat", "grain"}},
	{"Flour", []string{"flour", "atta", "besan", "maida", "chakki"}},
	{"Dals & Lentils", []string{"dal", "lentil", "toor", "urad", "moong", "chana", "rajma", "masoor"}},
	{"Spices & Masala", []string{"spice", "masala", "powder", "turmeric", "cumin", "coriander", "chili", "pepper", "garam"}},
	{"Oil & Ghee", []string{"oil", "ghee", "vanaspati", "butter"}},
	{"Snacks", []string{"chips", "namkeen", "bhujia", "mixture", "papad", "cookies", "biscuit"}},
	{"Sauces & Pickles", []string{"sauce", "chutney", "pickle", "achaar", "paste", "ketchup"}},
	{"Beverages", []string{"tea", "coffee", "juice", "drink", "lassi", "soda"}},
	{"Sweets", []string{"sweet", "mithai", "laddu", "barfi", "halwa", "gulab"}},
	{"Dairy", []string{"milk", "paneer", "yogurt", "cheese", "cream", "dahi"}},
	{"Frozen", []string{"frozen", "paratha", "naan", "samosa", "ice cream"}},
	{"Fresh Produce", []string{"fresh", "vegetable", "fruit", "onion", "potato", "tomato"}},
}

// DisplayCategory buckets a product for reporting. The product's own
// category string is consulted before its name; unmatched products land in
// "Other".
func DisplayCategory(productName, productCategory string) string {
	if productCategory != "" {
		categoryLower := strings.ToLower(productCategory)
		for _, dc := range displayCategories {
			for _, kw := range dc.keywords {
				if strings.Contains(categoryLower, kw) {
					return dc.name
				}
			}
		}
	}

	nameLower := strings.ToLower(productName)
	for _, dc := range displayCategories {
		for _, kw := range dc.keywords {
			if strings.Contains(nameLower, kw) {
				return dc.name
			}
		}
	}
	return "Other"
}
