package httpx

import (
	"strconv"
	"strings"
)

// ParseIDList accepts both bulk-action payload shapes the front end sends:
// a JSON array of numbers or numeric strings, or a single comma-separated
// string. Blank segments in the string form are skipped.
func ParseIDList(raw any) ([]int64, error) {
	switch v := raw.(type) {
	case []any:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int64(n))
			case string:
				id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			default:
				return nil, strconv.ErrSyntax
			}
		}
		return ids, nil
	case string:
		parts := strings.Split(v, ",")
		ids := make([]int64, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, strconv.ErrSyntax
	}
}
