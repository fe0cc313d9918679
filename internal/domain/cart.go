package domain

type Cart struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id,omitempty"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	Product  Product `json:"item"`
	Quantity int     `json:"quantity"`
}

// Normalize drops zero-quantity lines and folds repeated products into one
// line, keeping first-seen order.
func Normalize(items []CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.Product.ID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.Product.ID] = len(out)
		out = append(out, item)
	}
	return out
}
