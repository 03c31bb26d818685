package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	assert.Equal(t, "ok", T("fr", "health.ok"))
	assert.Equal(t, "高风险", T("zh", "risk.high"))
	assert.Equal(t, "Moderate risk", T("en", "risk.moderate"))
	assert.Equal(t, "risk.unknown", T("en", "risk.unknown"))
}

func TestLocalesHaveEveryKey(t *testing.T) {
	for key := range translations["en"] {
		for _, loc := range Locales {
			_, ok := translations[loc][key]
			assert.True(t, ok, "%s missing %s", loc, key)
		}
	}
}

func TestRiskLabel(t *testing.T) {
	assert.Equal(t, "Low risk", RiskLabel("en", "low"))
	assert.Equal(t, "中等风险", RiskLabel("zh", "moderate"))
}
