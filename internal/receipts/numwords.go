package receipts

import "strings"

var (
	onesWords = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// AmountInWords spells out a rupee amount using Indian grouping
// (crore, lakh, thousand).
func AmountInWords(amount int64) string {
	if amount == 0 {
		return "Zero"
	}
	if amount < 0 {
		return "Minus " + AmountInWords(-amount)
	}
	return strings.TrimSpace(convert(amount))
}

func convert(n int64) string {
	switch {
	case n >= 10000000:
		return strings.TrimSpace(convert(n/10000000)) + " Crore " + convert(n%10000000)
	case n >= 100000:
		return strings.TrimSpace(convert(n/100000)) + " Lakh " + convert(n%100000)
	case n >= 1000:
		return strings.TrimSpace(convert(n/1000)) + " Thousand " + convert(n%1000)
	default:
		return convertThree(n)
	}
}

func convertThree(n int64) string {
	if n == 0 {
		return ""
	}
	if n < 20 {
		return onesWords[n]
	}
	if n < 100 {
		word := tensWords[n/10]
		if n%10 > 0 {
			word += " " + onesWords[n%10]
		}
		return word
	}
	word := onesWords[n/100] + " Hundred"
	if n%100 > 0 {
		word += " " + convertThree(n%100)
	}
	return word
}
