package parser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fhr/attendance-engine/attendance"
	"github.com/fhr/attendance-engine/parser"
)

const header = "應刷卡時間\t實際刷卡時間\t刷卡別\t卡號\t來源\t狀態\t處理\t作業\t備註"

func line(fields ...string) string { return strings.Join(fields, "\t") }

// =============================================================================
// LINE PARSING
// =============================================================================

func TestParseLine_CheckInWithActual(t *testing.T) {
	// GIVEN a complete check-in line
	rec, ok := parser.ParseLine(line("2025/07/07 09:00", "2025/07/07 08:55", "上班", "0042", "刷卡機", "正常"))

	// THEN every field lands
	require.True(t, ok)
	assert.Equal(t, attendance.KindCheckIn, rec.Kind)
	assert.Equal(t, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), rec.Date)
	require.NotNil(t, rec.Actual)
	assert.Equal(t, "08:55", rec.Actual.Format(attendance.ClockTime))
	assert.Equal(t, "0042", rec.CardNumber)
}

func TestParseLine_MissingActualPunch(t *testing.T) {
	// GIVEN a check-out slot the employee never punched
	rec, ok := parser.ParseLine(line("2025/07/07 18:00", "", "下班"))

	// THEN the record exists with a nil actual time
	require.True(t, ok)
	assert.Equal(t, attendance.KindCheckOut, rec.Kind)
	assert.Nil(t, rec.Actual)
}

func TestParseLine_StripsLineMarker(t *testing.T) {
	// GIVEN a line with a leading "12→" viewer artifact
	rec, ok := parser.ParseLine("  12→" + line("2025/07/07 09:00", "", "上班"))

	// THEN the marker is ignored
	require.True(t, ok)
	assert.Equal(t, attendance.KindCheckIn, rec.Kind)
}

func TestParseLine_Rejections(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"unknown kind", line("2025/07/07 09:00", "", "午休")},
		{"no scheduled time", line("", "2025/07/07 08:55", "上班")},
		{"garbage scheduled time", line("not a time", "", "上班")},
		{"short line", "2025/07/07 09:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := parser.ParseLine(tc.in)
			assert.False(t, ok)
		})
	}
}

// =============================================================================
// FILE PARSING
// =============================================================================

func TestParse_SkipsHeaderAndCountsBadLines(t *testing.T) {
	// GIVEN a file with a header, two good lines and one bad line
	input := strings.Join([]string{
		header,
		line("2025/07/07 09:00", "2025/07/07 08:55", "上班"),
		line("2025/07/07 18:00", "2025/07/07 18:40", "下班"),
		line("junk", "junk", "junk"),
		"",
	}, "\n")

	// WHEN parsed
	res, err := parser.Parse(strings.NewReader(input))

	// THEN good lines become records and the bad line is only counted
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Total)
}

// =============================================================================
// FILE NAMES
// =============================================================================

func TestParseFileName_SingleMonth(t *testing.T) {
	// GIVEN a single-month export name
	meta, err := parser.ParseFileName("/data/202507-王小明-出勤資料.txt")

	// THEN the span covers that whole month
	require.NoError(t, err)
	assert.Equal(t, "王小明", meta.Employee)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), meta.Start)
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), meta.End)
	assert.Equal(t, "202507-王小明-出勤資料.txt", meta.BaseName)
}

func TestParseFileName_MonthRange(t *testing.T) {
	// GIVEN a multi-month export spanning a year boundary
	meta, err := parser.ParseFileName("202512-202601-alice-出勤資料.txt")

	// THEN the span runs from December 1st through January 31st
	require.NoError(t, err)
	assert.Equal(t, "alice", meta.Employee)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), meta.Start)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), meta.End)
}

func TestParseFileName_Rejections(t *testing.T) {
	cases := []string{
		"alice.txt",
		"20250701-alice-出勤資料.txt", // eight digits
		"202513-alice-出勤資料.txt",   // month 13
		"202507-202506-alice-出勤資料.txt", // inverted range
		"202507-alice-出勤資料.csv",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.ParseFileName(name)
			assert.ErrorIs(t, err, parser.ErrBadFileName)
		})
	}
}
