package funcs

import (
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var TemplateFuncs = template.FuncMap{
	"formatAmount": FormatAmount,
	"formatDate":   FormatDate,
	"upper":        strings.ToUpper,
}

// FormatAmount renders a monetary amount with grouping separators,
// e.g. 1234.5 -> "1,234.50".
func FormatAmount(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
