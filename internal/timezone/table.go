package timezone

// lookupTable maps normalized location text (abbreviations, countries,
// cities) to canonical IANA identifiers.
//
// Abbreviations are inherently ambiguous; the table collapses each to one
// canonical zone by user-base priority rather than validating against the
// user's actual offset. The chosen priorities:
//
//	IST -> Asia/Kolkata   (over Irish and Israel Standard Time)
//	CST -> America/Chicago (over China Standard Time)
//	PST/PDT/PT -> America/Los_Angeles
//	EST/EDT/ET -> America/New_York
//	MST/MDT/MT -> America/Denver
//	BST -> Europe/London  (British Summer Time, over Bangladesh Standard Time)
var lookupTable = map[string]string{
	// Abbreviations
	"utc": "UTC",
	"gmt": "UTC",
	"ist": "Asia/Kolkata",
	"cst": "America/Chicago",
	"cdt": "America/Chicago",
	"ct":  "America/Chicago",
	"est": "America/New_York",
	"edt": "America/New_York",
	"et":  "America/New_York",
	"pst": "America/Los_Angeles",
	"pdt": "America/Los_Angeles",
	"pt":  "America/Los_Angeles",
	"mst": "America/Denver",
	"mdt": "America/Denver",
	"mt":  "America/Denver",
	"bst": "Europe/London",
	"cet": "Europe/Paris",
	"eet": "Europe/Athens",
	"jst": "Asia/Tokyo",
	"kst": "Asia/Seoul",
	"hkt": "Asia/Hong_Kong",
	"sgt": "Asia/Singapore",
	"aest": "Australia/Sydney",
	"aedt": "Australia/Sydney",
	"awst": "Australia/Perth",
	"nzst": "Pacific/Auckland",
	"nzdt": "Pacific/Auckland",
	"wat":  "Africa/Lagos",
	"eat":  "Africa/Nairobi",
	"sast": "Africa/Johannesburg",
	"brt":  "America/Sao_Paulo",

	// Countries
	"india":          "Asia/Kolkata",
	"usa":            "America/New_York",
	"united states":  "America/New_York",
	"uk":             "Europe/London",
	"united kingdom": "Europe/London",
	"england":        "Europe/London",
	"ireland":        "Europe/Dublin",
	"germany":        "Europe/Berlin",
	"france":         "Europe/Paris",
	"spain":          "Europe/Madrid",
	"italy":          "Europe/Rome",
	"netherlands":    "Europe/Amsterdam",
	"japan":          "Asia/Tokyo",
	"china":          "Asia/Shanghai",
	"south korea":    "Asia/Seoul",
	"korea":          "Asia/Seoul",
	"singapore":      "Asia/Singapore",
	"indonesia":      "Asia/Jakarta",
	"philippines":    "Asia/Manila",
	"pakistan":       "Asia/Karachi",
	"bangladesh":     "Asia/Dhaka",
	"uae":            "Asia/Dubai",
	"israel":         "Asia/Jerusalem",
	"australia":      "Australia/Sydney",
	"new zealand":    "Pacific/Auckland",
	"brazil":         "America/Sao_Paulo",
	"argentina":      "America/Argentina/Buenos_Aires",
	"mexico":         "America/Mexico_City",
	"canada":         "America/Toronto",
	"nigeria":        "Africa/Lagos",
	"kenya":          "Africa/Nairobi",
	"south africa":   "Africa/Johannesburg",
	"egypt":          "Africa/Cairo",
	"russia":         "Europe/Moscow",
	"turkey":         "Europe/Istanbul",

	// Cities
	"new york":      "America/New_York",
	"nyc":           "America/New_York",
	"boston":        "America/New_York",
	"miami":         "America/New_York",
	"toronto":       "America/Toronto",
	"chicago":       "America/Chicago",
	"dallas":        "America/Chicago",
	"houston":       "America/Chicago",
	"denver":        "America/Denver",
	"phoenix":       "America/Phoenix",
	"los angeles":   "America/Los_Angeles",
	"la":            "America/Los_Angeles",
	"san francisco": "America/Los_Angeles",
	"seattle":       "America/Los_Angeles",
	"vancouver":     "America/Vancouver",
	"mexico city":   "America/Mexico_City",
	"sao paulo":     "America/Sao_Paulo",
	"buenos aires":  "America/Argentina/Buenos_Aires",
	"london":        "Europe/London",
	"dublin":        "Europe/Dublin",
	"paris":         "Europe/Paris",
	"berlin":        "Europe/Berlin",
	"munich":        "Europe/Berlin",
	"amsterdam":     "Europe/Amsterdam",
	"madrid":        "Europe/Madrid",
	"barcelona":     "Europe/Madrid",
	"rome":          "Europe/Rome",
	"milan":         "Europe/Rome",
	"zurich":        "Europe/Zurich",
	"stockholm":     "Europe/Stockholm",
	"moscow":        "Europe/Moscow",
	"istanbul":      "Europe/Istanbul",
	"athens":        "Europe/Athens",
	"cairo":         "Africa/Cairo",
	"lagos":         "Africa/Lagos",
	"nairobi":       "Africa/Nairobi",
	"johannesburg":  "Africa/Johannesburg",
	"dubai":         "Asia/Dubai",
	"tel aviv":      "Asia/Jerusalem",
	"karachi":       "Asia/Karachi",
	"mumbai":        "Asia/Kolkata",
	"delhi":         "Asia/Kolkata",
	"new delhi":     "Asia/Kolkata",
	"bangalore":     "Asia/Kolkata",
	"bengaluru":     "Asia/Kolkata",
	"chennai":       "Asia/Kolkata",
	"kolkata":       "Asia/Kolkata",
	"hyderabad":     "Asia/Kolkata",
	"pune":          "Asia/Kolkata",
	"dhaka":         "Asia/Dhaka",
	"jakarta":       "Asia/Jakarta",
	"manila":        "Asia/Manila",
	"bangkok":       "Asia/Bangkok",
	"hanoi":         "Asia/Ho_Chi_Minh",
	"kuala lumpur":  "Asia/Kuala_Lumpur",
	"hong kong":     "Asia/Hong_Kong",
	"shanghai":      "Asia/Shanghai",
	"beijing":       "Asia/Shanghai",
	"taipei":        "Asia/Taipei",
	"seoul":         "Asia/Seoul",
	"tokyo":         "Asia/Tokyo",
	"osaka":         "Asia/Tokyo",
	"sydney":        "Australia/Sydney",
	"melbourne":     "Australia/Melbourne",
	"brisbane":      "Australia/Brisbane",
	"perth":         "Australia/Perth",
	"auckland":      "Pacific/Auckland",
	"wellington":    "Pacific/Auckland",
}
