// Package utils holds small helpers shared by the API, the bot and the
// notifier: money formatting, phone normalization and query parsing.
package utils

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	moneyPrinter = message.NewPrinter(language.Uzbek)
	spaces       = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

// FormatSom renders an amount in so'm with grouped thousands, as shown to
// customers and operators.
//
//	utils.FormatSom(180000) // "180 000 so'm"
func FormatSom(amount int64) string {
	return spaces.Replace(moneyPrinter.Sprintf("%d", amount)) + " so'm"
}
