package query

import (
	"sort"
	"strings"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

// Criteria narrows a view. Empty fields do not constrain.
type Criteria struct {
	Class string `json:"class"`
	Name  string `json:"name"`
}

// Filter keeps rows whose class equals c.Class exactly (after trimming) and
// whose student name contains c.Name, ignoring case.
func Filter(rows []models.Row, c Criteria) []models.Row {
	class := strings.TrimSpace(c.Class)
	needle := strings.ToLower(strings.TrimSpace(c.Name))

	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if class != "" && strings.TrimSpace(r.Class) != class {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.StudentName), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort returns a copy ordered newest first by the created_at string.
// Rows with equal timestamps keep their relative order.
func Sort(rows []models.Row) []models.Row {
	out := make([]models.Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}
