package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// AmountPolicy decides what happens to a cart line whose total_amount is not a
// clean integer of minor currency units.
type AmountPolicy string

const (
	// AmountCoerce keeps the historical checkout behaviour: the integer prefix
	// is used and a value with no digits becomes 0. Each coercion is reported.
	AmountCoerce AmountPolicy = "coerce"
	// AmountReject drops the whole event as a data-integrity failure.
	AmountReject AmountPolicy = "reject"
)

func NewAmountPolicy(raw string) (AmountPolicy, error) {
	switch p := AmountPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case AmountCoerce, AmountReject:
		return p, nil
	case "":
		return AmountCoerce, nil
	default:
		return "", fmt.Errorf("unknown amount policy %q", raw)
	}
}

// CartItem is one line of the checkout cart snapshot.
type CartItem struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	TotalAmount int64  `json:"total_amount"`
}

// Coercion records a total_amount that was not a clean integer.
type Coercion struct {
	ProductID string `json:"product_id"`
	Raw       string `json:"raw"`
	Value     int64  `json:"value"`
}

// Cart is a parsed snapshot. Items are merged per product and sorted by
// product id, so stock rows are always locked in the same order.
type Cart struct {
	Items     []CartItem
	Coercions []Coercion
}

type rawCartItem struct {
	ProductID   string          `json:"product_id"`
	Quantity    json.RawMessage `json:"quantity"`
	TotalAmount json.RawMessage `json:"total_amount"`
}

// ParseCart decodes notes.cartData. Structural problems (not a JSON array, empty
// cart, missing product id, non-positive quantity) always fail; amount problems
// follow policy.
func ParseCart(cartData string, policy AmountPolicy) (Cart, error) {
	if strings.TrimSpace(cartData) == "" {
		return Cart{}, ErrMissingCart
	}

	var rawItems []rawCartItem
	if err := json.Unmarshal([]byte(cartData), &rawItems); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	if len(rawItems) == 0 {
		return Cart{}, fmt.Errorf("%w: empty cart", ErrMalformedCart)
	}

	var cart Cart
	merged := make(map[string]*CartItem, len(rawItems))
	for i, raw := range rawItems {
		productID := strings.TrimSpace(raw.ProductID)
		if productID == "" {
			return Cart{}, fmt.Errorf("%w: line %d has no product_id", ErrInvalidLine, i)
		}

		qty, ok := parseQuantity(raw.Quantity)
		if !ok {
			return Cart{}, fmt.Errorf("%w: line %d product %s quantity %s", ErrInvalidLine, i, productID, string(raw.Quantity))
		}

		amount, clean := CoerceAmount(raw.TotalAmount)
		if !clean {
			if policy == AmountReject {
				return Cart{}, fmt.Errorf("%w: line %d product %s total_amount %s", ErrInvalidAmount, i, productID, string(raw.TotalAmount))
			}
			cart.Coercions = append(cart.Coercions, Coercion{
				ProductID: productID,
				Raw:       string(raw.TotalAmount),
				Value:     amount,
			})
		}

		if item, exists := merged[productID]; exists {
			if item.Quantity > maxQuantity-qty || item.TotalAmount > math.MaxInt64-amount {
				return Cart{}, fmt.Errorf("%w: product %s totals overflow after merging line %d", ErrInvalidLine, productID, i)
			}
			item.Quantity += qty
			item.TotalAmount += amount
			continue
		}
		merged[productID] = &CartItem{ProductID: productID, Quantity: qty, TotalAmount: amount}
	}

	cart.Items = make([]CartItem, 0, len(merged))
	for _, item := range merged {
		cart.Items = append(cart.Items, *item)
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID < cart.Items[j].ProductID
	})

	return cart, nil
}

// maxQuantity matches the orders.quantity INTEGER column.
const maxQuantity = math.MaxInt32

// parseQuantity accepts a positive JSON integer or a string holding one, up to
// maxQuantity.
func parseQuantity(raw json.RawMessage) (int, bool) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	qty, err := strconv.Atoi(text)
	if err != nil || qty <= 0 || qty > maxQuantity {
		return 0, false
	}
	return qty, true
}

// CoerceAmount turns a total_amount into integer minor units. The boolean is
// false whenever the input was not already a non-negative integer, in which case
// the value follows integer-prefix rules: "500.75" gives 500, "12abc" gives 12,
// and anything without leading digits, negative, or out of range gives 0.
func CoerceAmount(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, false
		}
		return coerceString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return coerceNumber(string(trimmed))
	default:
		return 0, false
	}
}

func coerceNumber(text string) (int64, bool) {
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		if v < 0 {
			return 0, false
		}
		return v, true
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 || f >= math.MaxInt64 || math.IsNaN(f) {
		return 0, false
	}
	// 5e2 is a clean integer written in exponent form.
	if f == math.Trunc(f) {
		return int64(f), true
	}
	return int64(math.Trunc(f)), false
}

func coerceString(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	full := strings.TrimRightFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, s[:end] == full && s[0] != '+'
}
