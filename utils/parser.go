package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// priceRegex finds the first number-like run in a string: "1,079.00", "12,99", "99".
var priceRegex = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice extracts a numeric price from text like "List Price: AED 219.41" or "12,99 zł".
// A comma followed by one or two trailing digits is read as a decimal separator.
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0.0
	}

	found := strings.TrimRight(priceRegex.FindString(priceStr), ".,")
	if found == "" {
		return 0.0
	}

	dot, comma := strings.LastIndex(found, "."), strings.LastIndex(found, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		// 1.079,00
		found = strings.ReplaceAll(found, ".", "")
		found = strings.Replace(found, ",", ".", 1)
	case comma >= 0 && dot < 0 && len(found)-comma-1 <= 2 && strings.Count(found, ",") == 1:
		// 12,99
		found = strings.Replace(found, ",", ".", 1)
	default:
		found = strings.ReplaceAll(found, ",", "")
	}

	price, err := strconv.ParseFloat(found, 64)
	if err != nil {
		logrus.Debugf("ParsePrice: failed to parse %q from %q: %v", found, priceStr, err)
		return 0.0
	}
	return price
}
