package domain

// Category is assigned by the endpoint that produced a record, never by upstream data.
type Category string

const (
	CategoryIndex       Category = "index"
	CategoryCrossBorder Category = "cross_border"
	CategoryCommodity   Category = "commodity"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryIndex, CategoryCrossBorder, CategoryCommodity:
		return Category(s), nil
	default:
		return "", ErrUnknownCategory
	}
}
