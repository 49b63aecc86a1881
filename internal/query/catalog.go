package query

type Option struct {
	Value string
	Label string
}

// SortOptions are the orderings offered by the client selectors.
var SortOptions = []Option{
	{Value: "name_asc", Label: "Name (A-Z)"},
	{Value: "name_desc", Label: "Name (Z-A)"},
	{Value: "createdAt_desc", Label: "Newest First"},
	{Value: "createdAt_asc", Label: "Oldest First"},
	{Value: "updatedAt_desc", Label: "Recently Updated"},
}

// Countries are the country filters offered by the client selectors.
var Countries = []Option{
	{Value: CountryAll, Label: "All Countries"},
	{Value: "+1", Label: "United States (+1)"},
	{Value: "+44", Label: "United Kingdom (+44)"},
	{Value: "+33", Label: "France (+33)"},
	{Value: "+34", Label: "Spain (+34)"},
	{Value: "+55", Label: "Brazil (+55)"},
	{Value: "+82", Label: "South Korea (+82)"},
	{Value: "+86", Label: "China (+86)"},
	{Value: "+91", Label: "India (+91)"},
}

// Label returns the label of value in opts, or value itself when unknown.
func Label(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}

	return value
}

// Next returns the option after value in opts, wrapping around.
func Next(opts []Option, value string) string {
	for i, o := range opts {
		if o.Value == value {
			return opts[(i+1)%len(opts)].Value
		}
	}

	return opts[0].Value
}
