package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "$0",
		"45":       "$45",
		"1200":     "$1,200",
		"1234.5":   "$1,234.50",
		"9876543":  "$9,876,543",
		"-1500.25": "-$1,500.25",
		"999.999":  "$1,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}
