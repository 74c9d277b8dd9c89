package searchexpiring

import (
	"strings"

	"ewaybill-workers/internal/models"
)

// buildQuery selects documents whose hoursToExpiry falls inside window,
// soonest first. An empty vehicle matches all vehicles.
func buildQuery(window models.ExpiryWindow, vehicle string) map[string]interface{} {
	filterClauses := []interface{}{}

	if maxHours, ok := window.MaxHours(); ok {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"hoursToExpiry": map[string]interface{}{"lte": maxHours},
			},
		})
	}

	if v := normalizeVehicle(vehicle); v != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"vehicle": v},
		})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(filterClauses) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filterClauses},
		}
	}

	return map[string]interface{}{
		"query": query,
		"sort": []interface{}{
			map[string]interface{}{"hoursToExpiry": map[string]interface{}{"order": "asc"}},
		},
	}
}

func normalizeVehicle(v string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
}
