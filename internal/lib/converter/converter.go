package converter

import (
	"math"
	"strconv"
)

// Amounts travel as whole currency units on the wire and as cents internally.

func ConvertAmountFloatToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func ConvertCentsToAmountString(amount int64) string {
	return strconv.FormatInt(amount/100, 10)
}
