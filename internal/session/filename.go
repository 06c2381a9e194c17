package session

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Clock selects how the am/pm suffix of an export file name is read.
type Clock string

const (
	// Clock12h treats HHMM as a 12-hour time when an am/pm suffix is present.
	Clock12h Clock = "12h"
	// Clock24h takes HHMM literally and ignores any am/pm suffix.
	Clock24h Clock = "24h"
)

// ParseClock validates a clock policy name.
func ParseClock(s string) (Clock, error) {
	switch Clock(strings.ToLower(strings.TrimSpace(s))) {
	case Clock12h, "":
		return Clock12h, nil
	case Clock24h:
		return Clock24h, nil
	default:
		return "", fmt.Errorf("unknown clock %q (supported: 12h, 24h)", s)
	}
}

// ParseStartTime reads the session start from an export file name of the
// form "<anything> YYYYMMDD HHMM[am|pm].csv", e.g.
// "Toms Speedcoach 20230307 0427pm.csv". The result is in local time.
func ParseStartTime(path string, clock Clock) (time.Time, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return time.Time{}, fmt.Errorf("session name %q: want \"... YYYYMMDD HHMM[am|pm]\"", base)
	}

	dateTok := tokens[len(tokens)-2]
	timeTok := strings.ToLower(tokens[len(tokens)-1])

	if len(dateTok) < 8 {
		return time.Time{}, fmt.Errorf("session name %q: date token %q too short", base, dateTok)
	}
	year, err1 := strconv.Atoi(dateTok[0:4])
	month, err2 := strconv.Atoi(dateTok[4:6])
	day, err3 := strconv.Atoi(dateTok[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("session name %q: bad date token %q", base, dateTok)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("session name %q: date %q out of range", base, dateTok)
	}

	if len(timeTok) < 4 {
		return time.Time{}, fmt.Errorf("session name %q: time token %q too short", base, timeTok)
	}
	hour, err1 := strconv.Atoi(timeTok[0:2])
	minute, err2 := strconv.Atoi(timeTok[2:4])
	if err1 != nil || err2 != nil {
		return time.Time{}, fmt.Errorf("session name %q: bad time token %q", base, timeTok)
	}
	suffix := timeTok[4:]

	if clock == Clock12h {
		switch suffix {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("session name %q: time %q out of range", base, timeTok)
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), nil
}

// Label formats a session start for chart titles: "Tue 07 Mar 2023 - 16:27 PM".
func Label(t time.Time) string {
	return t.Format("Mon 02 Jan 2006 - 15:04 PM")
}

// FileStem derives an output file stem from a session start:
// "tue_07_mar_2023_1627_pm".
func FileStem(t time.Time) string {
	s := Label(t)
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ReplaceAll(s, " - ", " ")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToLower(s)
}
