package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Standard Price", "AED 1,079.00", 1079.00},
		{"Price with Comma", "AED 2,550.50", 2550.50},
		{"Price without Comma", "AED 350.75", 350.75},
		{"Integer Price", "AED 99", 99.0},
		{"Decimal Comma", "12,99 zł", 12.99},
		{"European Thousands", "1.079,00 €", 1079.00},
		{"Thousands Comma Only", "$1,079", 1079.0},
		{"Trailing Dot", "Price: 15.", 15.0},
		{"Empty String", "", 0.0},
		{"Invalid String", "No Price", 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, ParsePrice(tc.input), 0.0001, "ParsePrice(%q)", tc.input)
		})
	}
}

func TestCreateSlug(t *testing.T) {
	assert.Equal(t, "legimi-pl", CreateSlug("Legimi PL"))
	assert.Equal(t, "księgarnia-ebooków", CreateSlug("Księgarnia eBooków!"))
	assert.Equal(t, "woblink", CreateSlug("  Woblink  "))
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UniqueStrings([]string{"a", "b", "a"}))
	assert.Equal(t, []string{}, UniqueStrings(nil))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Woblink", "Legimi"}, SplitList(" Woblink, Legimi ,,Woblink"))
	assert.Empty(t, SplitList(""))
}

func TestGetOptimalWorkerCount(t *testing.T) {
	assert.Equal(t, 3, GetOptimalWorkerCount("3"))
	for _, v := range []string{"auto", "many", "-1"} {
		n := GetOptimalWorkerCount(v)
		assert.GreaterOrEqual(t, n, minAutoWorkers, v)
		assert.LessOrEqual(t, n, maxAutoWorkers, v)
	}
}

func TestWorkersForCores(t *testing.T) {
	testCases := []struct {
		cores, want int
	}{
		{0, 2},
		{1, 4},
		{4, 16},
		{8, 32},
		{64, 32},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, workersForCores(tc.cores), "%d cores", tc.cores)
	}
}
