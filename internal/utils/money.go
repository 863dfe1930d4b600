package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToPaise converts a rupee amount into the integer minor unit gateways expect.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// RoundTo rounds v to n decimals.
func RoundTo(v float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}

// Percent returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return RoundTo(part/whole*100, 2)
}

// FormatINR renders an amount with Indian digit grouping, e.g. ₹1,23,456.50.
func FormatINR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	paise := ToPaise(amount)
	rupees := paise / 100
	frac := paise % 100
	return fmt.Sprintf("%sRs. %s.%02d", sign, groupIndian(rupees), frac)
}

func groupIndian(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
