package metalsapi

// DefaultMetalCodes maps human metal names and ISO-4217 metal codes to the
// code Metals-API expects. Unknown symbols are sent upper-cased.
var DefaultMetalCodes = map[string]string{
	"XAU":       "XAU",
	"XAG":       "XAG",
	"XPT":       "XPT",
	"XPD":       "XPD",
	"GOLD":      "XAU",
	"SILVER":    "XAG",
	"PLATINUM":  "XPT",
	"PALLADIUM": "XPD",
}
