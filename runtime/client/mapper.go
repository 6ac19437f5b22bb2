package client

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// decodeRows maps raw result rows onto entity values. Field names follow
// the entity's column names; a JSON round-trip keeps the mapping rules in
// one place.
func decodeRows[T any](rows []Row) ([]T, error) {
	if rows == nil {
		return nil, nil
	}
	results := make([]T, 0, len(rows))
	for i, row := range rows {
		value, err := decodeRow[T](row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		results = append(results, value)
	}
	return results, nil
}

func decodeRow[T any](row Row) (T, error) {
	var value T
	raw, err := json.Marshal(row)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, err
	}
	return value, nil
}
