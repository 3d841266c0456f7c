package certificate

import (
	"strconv"
	"strings"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}

// AmountInWords spells a rupee amount in Indian numbering with an "Only"
// suffix, e.g. 150000 becomes "One Lakh Fifty Thousand Only".  Input that is
// not a non-negative integer yields "".
func AmountInWords(amount string) string {
	n, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
	if err != nil {
		return ""
	}
	if n == 0 {
		return "Zero Only"
	}
	return strings.Join(indianWords(n), " ") + " Only"
}

func indianWords(n uint64) []string {
	var out []string
	if crore := n / 10000000; crore > 0 {
		out = append(out, indianWords(crore)...)
		out = append(out, "Crore")
		n %= 10000000
	}
	for _, unit := range []struct {
		div  uint64
		name string
	}{{100000, "Lakh"}, {1000, "Thousand"}, {100, "Hundred"}} {
		if q := n / unit.div; q > 0 {
			out = append(out, belowHundred(q)...)
			out = append(out, unit.name)
			n %= unit.div
		}
	}
	return append(out, belowHundred(n)...)
}

func belowHundred(n uint64) []string {
	switch {
	case n == 0:
		return nil
	case n < 20:
		return []string{ones[n]}
	case n%10 == 0:
		return []string{tens[n/10]}
	}
	return []string{tens[n/10], ones[n%10]}
}
