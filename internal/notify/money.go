package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupees = message.NewPrinter(language.MustParse("en-IN"))

// Price formats an amount in rupees with locale digit grouping.
func Price(amount float64) string {
	return rupees.Sprintf("₹%.2f", amount)
}
