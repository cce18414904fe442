package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PT1H2M3S", "1:02:03"},
		{"PT5M", "5:00"},
		{"PT45S", "0:45"},
		{"PT", "0:00"},
		{"PT10M7S", "10:07"},
		{"PT2H", "2:00:00"},
		{"PT1H5S", "1:00:05"},
		{"", "0:00"},
		{"garbage", "0:00"},
		{"P1DT2H", "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestFormatViewCount(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{999_949, "999.9K"},
		{2_500_000, "2.5M"},
		{12_340_000, "12.3M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatViewCount(tt.in), "input %d", tt.in)
	}
}

func TestParseViewCount(t *testing.T) {
	assert.Equal(t, uint64(1234), ParseViewCount("1234"))
	assert.Equal(t, uint64(0), ParseViewCount(""))
	assert.Equal(t, uint64(0), ParseViewCount("n/a"))
}
