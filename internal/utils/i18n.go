package utils

// Server-side strings for fixed keys. Question text is authored per form.

// Locales lists the locales translations exist for, default first.
var Locales = []string{"en", "zh"}

var translations = map[string]map[string]string{
	"en": {
		"health.ok":     "ok",
		"risk.low":      "Low risk",
		"risk.moderate": "Moderate risk",
		"risk.high":     "High risk",
	},
	"zh": {
		"health.ok":     "好的",
		"risk.low":      "低风险",
		"risk.moderate": "中等风险",
		"risk.high":     "高风险",
	},
}

// RiskLabel is the display name of a risk level ("low", "moderate", "high").
func RiskLabel(locale, level string) string {
	return T(locale, "risk."+level)
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
