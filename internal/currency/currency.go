// Package currency - перечисление поддерживаемых валют и форматирование сумм.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency - ISO 4217 код и символ для отображения
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var supported = map[string]Currency{
	"ZMW": {Code: "ZMW", Symbol: "K", Name: "Zambian Kwacha"},
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar"},
	"ZAR": {Code: "ZAR", Symbol: "R", Name: "South African Rand"},
	"KES": {Code: "KES", Symbol: "KSh", Name: "Kenyan Shilling"},
	"NGN": {Code: "NGN", Symbol: "₦", Name: "Nigerian Naira"},
	"GHS": {Code: "GHS", Symbol: "GH₵", Name: "Ghanaian Cedi"},
	"BWP": {Code: "BWP", Symbol: "P", Name: "Botswana Pula"},
	"MWK": {Code: "MWK", Symbol: "MK", Name: "Malawian Kwacha"},
	"TZS": {Code: "TZS", Symbol: "TSh", Name: "Tanzanian Shilling"},
	"UGX": {Code: "UGX", Symbol: "USh", Name: "Ugandan Shilling"},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound"},
}

var printer = message.NewPrinter(language.English)

// IsSupported проверяет код валюты (регистр не важен)
func IsSupported(code string) bool {
	_, ok := supported[Normalize(code)]
	return ok
}

// Normalize приводит код к верхнему регистру без пробелов
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup возвращает описание валюты
func Lookup(code string) (Currency, bool) {
	c, ok := supported[Normalize(code)]
	return c, ok
}

// Codes - отсортированный список кодов
func Codes() []string {
	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// All - все поддерживаемые валюты, отсортированные по коду
func All() []Currency {
	out := make([]Currency, 0, len(supported))
	for _, code := range Codes() {
		out = append(out, supported[code])
	}
	return out
}

// Format печатает сумму с символом валюты: Format(25, "ZMW") == "K25.00".
// Для неизвестного кода используется "<CODE> <amount>".
func Format(amount float64, code string) string {
	num := printer.Sprintf("%.2f", amount)
	c, ok := Lookup(code)
	if !ok {
		return fmt.Sprintf("%s %s", Normalize(code), num)
	}
	return c.Symbol + num
}
