package metadata

import (
	"regexp"
	"strconv"
	"time"
)

// filenameDatePattern matches YYYYMMDD optionally followed by HHMMSS with at
// most one separator in between, as in IMG_20210314_153000.jpg or
// VID-20190101-WA0003.mp4.
var filenameDatePattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})(?:[_\-T ]?(\d{2})(\d{2})(\d{2}))?`)

// FilenameDate extracts a capture date from a file name. Only the first
// match is considered; if it does not form a real calendar date and time the
// result is nil.
func FilenameDate(name string) *time.Time {
	m := filenameDatePattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}

	year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
	var hour, minute, second int
	if m[4] != "" {
		hour, minute, second = atoi(m[4]), atoi(m[5]), atoi(m[6])
	}

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return nil
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2).
	if t.Day() != day || int(t.Month()) != month {
		return nil
	}
	return &t
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
