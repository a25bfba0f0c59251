package shared

// Listing defaults shared by every master data registry.
const (
	DefaultPage  = 1
	DefaultLimit = 10

	SortAsc  = "asc"
	SortDesc = "desc"
)
