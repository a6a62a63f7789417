package ledger

import (
	"sort"

	"github.com/csl-racing/api/internal/models"
)

// SortStandings orders rows by points descending, then races ascending, then
// driver name ascending, and assigns 1-based positions in place.
func SortStandings(rows []models.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.RacesCompleted != b.RacesCompleted {
			return a.RacesCompleted < b.RacesCompleted
		}
		if a.DriverName != b.DriverName {
			return a.DriverName < b.DriverName
		}
		return a.DriverID < b.DriverID
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}
