package interval

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		duration *Duration
		begin    string
		end      string
	}{
		{input: "monthly", duration: &Duration{Months, 1}},
		{input: "Every 2 Weeks", duration: &Duration{Weeks, 2}},
		{input: "every quarter", duration: &Duration{Quarters, 1}},
		{input: "monthly from 2024/01/01 to 2024/04/01", duration: &Duration{Months, 1}, begin: "2024/01/01", end: "2024/04/01"},
		{input: "yearly since 2020 until 2025", duration: &Duration{Years, 1}, begin: "2020/01/01", end: "2025/01/01"},
		{input: "weekly in 2024/02", duration: &Duration{Weeks, 1}, begin: "2024/02/01", end: "2024/03/01"},
		{input: "2023", begin: "2023/01/01", end: "2024/01/01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			iv, err := Parse(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.duration, iv.Duration)
			if tt.begin != "" {
				assert.Equal(t, tt.begin, FormatDate(*iv.Range.Begin))
			}
			if tt.end != "" {
				assert.Equal(t, tt.end, FormatDate(*iv.Range.End))
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "every", "every 0 days", "every 3", "fortnightly", "from", "in 2024/13"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestFindPeriodAlignsToQuantum(t *testing.T) {
	iv, err := Parse("monthly")
	assert.NoError(t, err)

	assert.True(t, iv.FindPeriod(Date(2024, time.March, 17)))
	assert.Equal(t, "2024/03/01", FormatDate(*iv.Start))
	assert.Equal(t, "2024/04/01", FormatDate(*iv.EndOfDuration))
}

func TestFindPeriodRespectsRange(t *testing.T) {
	iv, err := Parse("monthly from 2024/01/01 to 2024/04/01")
	assert.NoError(t, err)

	assert.False(t, iv.FindPeriod(Date(2023, time.December, 31)))
	assert.True(t, iv.FindPeriod(Date(2024, time.February, 10)))
	assert.Equal(t, "2024/02/01", FormatDate(*iv.Start))

	fresh, _ := Parse("monthly from 2024/01/01 to 2024/04/01")
	assert.False(t, fresh.FindPeriod(Date(2024, time.April, 1)))
}

func TestNextExhaustsAtFinish(t *testing.T) {
	iv, err := Parse("monthly from 2024/01/01 to 2024/04/01")
	assert.NoError(t, err)
	assert.True(t, iv.FindPeriod(Date(2024, time.January, 1)))

	var starts []string
	for iv.Start != nil {
		starts = append(starts, FormatDate(*iv.Start))
		assert.NoError(t, iv.Next())
	}
	assert.Equal(t, []string{"2024/01/01", "2024/02/01", "2024/03/01"}, starts)

	assert.EqualError(t, iv.Next(), "Cannot increment an unstarted date interval")
}

func TestNextWithoutDuration(t *testing.T) {
	iv, err := Parse("in 2024")
	assert.NoError(t, err)
	assert.True(t, iv.FindPeriod(Date(2024, time.June, 1)))
	assert.EqualError(t, iv.Next(), "Cannot increment a date interval without a duration")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29", 0)
	assert.NoError(t, err)
	assert.Equal(t, Date(2024, time.February, 29), d)

	d, err = ParseDate("03/05", 2021)
	assert.NoError(t, err)
	assert.Equal(t, Date(2021, time.March, 5), d)

	_, err = ParseDate("2023/02/29", 0)
	assert.Error(t, err)

	_, err = ParseDate("03/05", 0)
	assert.EqualError(t, err, `date "03/05" lacks a year`)
}
