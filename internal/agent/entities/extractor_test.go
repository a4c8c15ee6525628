package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSymbols(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"plain ticker", "Analyse AAPL", []string{"AAPL"}},
		{"dollar prefix", "what about $MSFT today", []string{"MSFT"}},
		{"company name", "how is apple doing", []string{"AAPL"}},
		{"mixed name and ticker", "compare microsoft and GOOGL", []string{"MSFT", "GOOGL"}},
		{"common word filtered", "THE price of AAPL", []string{"AAPL"}},
		{"dollar overrides filter", "is $ALL a good pick", []string{"ALL"}},
		{"french company", "analyse lvmh pour moi", []string{"MC.PA"}},
		{"nothing", "hello there", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.message, Options{Strict: true, MaxSymbols: 10})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDeduplicates(t *testing.T) {
	got := Extract("AAPL vs AAPL, apple again", Options{Strict: true, MaxSymbols: 10})
	assert.Equal(t, []string{"AAPL"}, got)
}

func TestExtractCapsResults(t *testing.T) {
	got := Extract("AAPL MSFT GOOGL AMZN", Options{Strict: true, MaxSymbols: 2})
	assert.Len(t, got, 2)
}

func TestExtractDeterministicOrder(t *testing.T) {
	first := Extract("compare apple microsoft and nvidia", Options{Strict: true, MaxSymbols: 10})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Extract("compare apple microsoft and nvidia", Options{Strict: true, MaxSymbols: 10}))
	}
}
