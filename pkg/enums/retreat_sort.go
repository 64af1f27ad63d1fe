package enums

// RetreatSort is the allow-listed set of sortable retreat listing fields.
// Unknown values degrade to the default sort key instead of erroring; the
// listing endpoint is a public search surface.
type RetreatSort string

const (
	RetreatSortCreatedAt     RetreatSort = "createdAt"
	RetreatSortPrice         RetreatSort = "price"
	RetreatSortDuration      RetreatSort = "duration"
	RetreatSortStartDate     RetreatSort = "startDate"
	RetreatSortAverageRating RetreatSort = "averageRating"
	RetreatSortTitle         RetreatSort = "title"
)

var retreatSortColumns = map[RetreatSort]string{
	RetreatSortCreatedAt:     "retreats.created_at",
	RetreatSortPrice:         "retreats.price",
	RetreatSortDuration:      "retreats.duration_days",
	RetreatSortStartDate:     "retreats.start_date",
	RetreatSortAverageRating: "retreats.average_rating",
	RetreatSortTitle:         "retreats.title",
}

// String implements fmt.Stringer.
func (s RetreatSort) String() string {
	return string(s)
}

// Column returns the qualified column the sort key maps to.
func (s RetreatSort) Column() string {
	if col, ok := retreatSortColumns[s]; ok {
		return col
	}
	return retreatSortColumns[RetreatSortCreatedAt]
}

// ParseRetreatSort normalizes raw input, falling back to createdAt for any
// value outside the allow-list.
func ParseRetreatSort(value string) RetreatSort {
	if _, ok := retreatSortColumns[RetreatSort(value)]; ok {
		return RetreatSort(value)
	}
	return RetreatSortCreatedAt
}

// SortOrder is the listing sort direction.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ParseSortOrder normalizes raw input, defaulting to descending.
func ParseSortOrder(value string) SortOrder {
	if value == string(SortOrderAsc) {
		return SortOrderAsc
	}
	return SortOrderDesc
}
