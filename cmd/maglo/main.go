package main

import (
	"github.com/shopspring/decimal"
)

func main() {
	// Money is rendered as a JSON number, not a quoted string
	decimal.MarshalJSONWithoutQuotes = true

	Execute()
}
