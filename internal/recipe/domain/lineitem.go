package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LineItem is one costed row of a recipe. The JSON shape is the editor
// contract and also the storage format, so field names stay camelCase.
// RecipeAmount stays a string: the editor sends whatever the user typed
// and the calculators decide whether it is numeric.
type LineItem struct {
	ID            string   `json:"id"`
	TermID        string   `json:"termId"`
	Name          string   `json:"name"`
	RecipeAmount  string   `json:"recipeAmount"`
	Cost          float64  `json:"cost"`
	SavedPrice    *float64 `json:"savedPrice,omitempty"`
	SavedQuantity *float64 `json:"savedQuantity,omitempty"`
}

type lineItemWire struct {
	ID            json.RawMessage `json:"id"`
	TermID        json.RawMessage `json:"termId"`
	Name          string          `json:"name"`
	RecipeAmount  json.RawMessage `json:"recipeAmount"`
	Cost          float64         `json:"cost"`
	SavedPrice    *float64        `json:"savedPrice"`
	SavedQuantity *float64        `json:"savedQuantity"`
}

// UnmarshalJSON accepts ids and amounts as either JSON strings or
// numbers. Rows written by older editor builds used numeric ids and a
// null termId.
func (l *LineItem) UnmarshalJSON(data []byte) error {
	var w lineItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	l.ID = flexString(w.ID)
	l.TermID = flexString(w.TermID)
	l.Name = w.Name
	l.RecipeAmount = flexString(w.RecipeAmount)
	l.Cost = w.Cost
	l.SavedPrice = w.SavedPrice
	l.SavedQuantity = w.SavedQuantity
	return nil
}

func (l LineItem) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID            string   `json:"id"`
		TermID        *string  `json:"termId"`
		Name          string   `json:"name"`
		RecipeAmount  string   `json:"recipeAmount"`
		Cost          float64  `json:"cost"`
		SavedPrice    *float64 `json:"savedPrice,omitempty"`
		SavedQuantity *float64 `json:"savedQuantity,omitempty"`
	}

	a := alias{
		ID:            l.ID,
		Name:          l.Name,
		RecipeAmount:  l.RecipeAmount,
		Cost:          l.Cost,
		SavedPrice:    l.SavedPrice,
		SavedQuantity: l.SavedQuantity,
	}
	if l.TermID != "" {
		a.TermID = &l.TermID
	}
	return json.Marshal(a)
}

func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return ""
}

// DecodeLineItems parses a stored line item column. Empty columns are a
// valid empty list. A malformed column reports the error so callers can
// log it, alongside an empty list the caller can still work with.
func DecodeLineItems(raw string) ([]LineItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []LineItem{}, nil
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []LineItem{}, err
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func EncodeLineItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
