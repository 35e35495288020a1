// Package availability нормализует свободный ввод времени доступности
// ("now", "in 2 hours", "5pm", "17:00-21:00") в UTC-окно. Все расчёты ведутся
// в UTC; ввод трактуется как локальное время игрока и сдвигается на его
// смещение от UTC (поддерживаются дробные смещения вроде +5.5).
package availability

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow — длительность окна, когда конец не задан или ввод не
// распознан.
const DefaultWindow = 4 * time.Hour

// SoonThreshold отделяет soon от scheduled по близости старта.
const SoonThreshold = 2 * time.Hour

type Type string

const (
	TypeNow       Type = "now"
	TypeSoon      Type = "soon"
	TypeLater     Type = "later"
	TypeScheduled Type = "scheduled"
)

// Window — нормализованное окно доступности.
type Window struct {
	Type    Type
	Start   time.Time
	End     time.Time
	Display string
}

var (
	hoursRe   = regexp.MustCompile(`(?i)(?:in\s+)?(\d+)\s*(?:hours?|hrs?|h)`)
	minutesRe = regexp.MustCompile(`(?i)(?:in\s+)?(\d+)\s*(?:minutes?|mins?|m)`)
	rangeRe   = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:[-–]+|to)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	clockRe   = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
)

func isNowKeyword(s string) bool {
	switch s {
	case "now", "yes", "ready", "available":
		return true
	}
	return false
}

// Parse нормализует пару "с ... до ..." в UTC-окно и классифицирует его.
//
// Порядок коррекций важен: сначала конец раньше начала получает +24h
// (окно через полночь, 11pm-2am), и только потом, если конец всё ещё в
// прошлом, обе границы сдвигаются на сутки вперёд (игрок имел в виду
// завтра). Окно, начавшееся в прошлом, но ещё не закончившееся, не
// сдвигается.
func Parse(startText, endText string, tzOffset float64, now time.Time) Window {
	now = now.UTC()
	startIn := strings.ToLower(strings.TrimSpace(startText))
	endIn := strings.ToLower(strings.TrimSpace(endText))

	start, startOK := parseInstant(startIn, tzOffset, now)
	end, endOK := parseInstant(endIn, tzOffset, now)

	if !startOK && !endOK {
		return Window{
			Type:    TypeNow,
			Start:   now,
			End:     now.Add(DefaultWindow),
			Display: displayOrNow(startText, endText),
		}
	}
	if !startOK {
		start = now
	}
	if !endOK {
		end = start.Add(DefaultWindow)
	}

	// Overnight: 11pm-2am parses end before start on the same day.
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	// Whole window already passed: assume tomorrow.
	if end.Before(now) {
		start = start.Add(24 * time.Hour)
		end = end.Add(24 * time.Hour)
	}

	return Window{
		Type:    classify(start, now),
		Start:   start,
		End:     end,
		Display: displayPair(startText, endText),
	}
}

// ParseInput разбирает один свободный ввод, включая диапазоны "5pm-9pm".
// Одиночное время в прошлом переносится на завтра. Относительные часы
// классифицируются soon при <= 2h, иначе later; минуты — now при <= 30m,
// иначе soon.
func ParseInput(input string, tzOffset float64, now time.Time) Window {
	now = now.UTC()
	in := strings.ToLower(strings.TrimSpace(input))

	if isNowKeyword(in) {
		return Window{Type: TypeNow, Start: now, End: now.Add(DefaultWindow), Display: "Now"}
	}

	if m := hoursRe.FindStringSubmatch(in); m != nil {
		h, _ := strconv.Atoi(m[1])
		start := now.Add(time.Duration(h) * time.Hour)
		typ := TypeLater
		if h <= 2 {
			typ = TypeSoon
		}
		return Window{Type: typ, Start: start, End: start.Add(DefaultWindow), Display: fmt.Sprintf("In %dh", h)}
	}

	if m := minutesRe.FindStringSubmatch(in); m != nil {
		mins, _ := strconv.Atoi(m[1])
		start := now.Add(time.Duration(mins) * time.Minute)
		typ := TypeSoon
		if mins <= 30 {
			typ = TypeNow
		}
		return Window{Type: typ, Start: start, End: start.Add(DefaultWindow), Display: fmt.Sprintf("In %dm", mins)}
	}

	if m := rangeRe.FindStringSubmatch(in); m != nil {
		start := clockToUTC(m[1], m[2], m[3], tzOffset, now)
		end := clockToUTC(m[4], m[5], m[6], tzOffset, now)
		if !end.After(start) {
			end = end.Add(24 * time.Hour)
		}
		if end.Before(now) {
			start = start.Add(24 * time.Hour)
			end = end.Add(24 * time.Hour)
		}
		display := formatClock(m[1], m[2], m[3]) + "-" + formatClock(m[4], m[5], m[6])
		return Window{Type: classify(start, now), Start: start, End: end, Display: display}
	}

	if m := clockRe.FindStringSubmatch(in); m != nil {
		start := clockToUTC(m[1], m[2], m[3], tzOffset, now)
		if start.Before(now) {
			start = start.Add(24 * time.Hour)
		}
		return Window{
			Type:    classify(start, now),
			Start:   start,
			End:     start.Add(DefaultWindow),
			Display: formatClock(m[1], m[2], m[3]),
		}
	}

	return Window{Type: TypeNow, Start: now, End: now.Add(DefaultWindow), Display: displayOrNow(input)}
}

// Overlaps — полуинтервальное пересечение [start, end); пустой конец
// считается start+4h.
func Overlaps(a, b Window) bool {
	aEnd := a.End
	if aEnd.IsZero() {
		aEnd = a.Start.Add(DefaultWindow)
	}
	bEnd := b.End
	if bEnd.IsZero() {
		bEnd = b.Start.Add(DefaultWindow)
	}
	return a.Start.Before(bEnd) && b.Start.Before(aEnd)
}

// TimezoneDisplay форматирует смещение как "UTC+8" или "UTC+5:30".
func TimezoneDisplay(offset float64) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
	}
	abs := math.Abs(offset)
	hours := int(abs)
	mins := int(math.Round((abs - float64(hours)) * 60))
	if mins == 0 {
		return fmt.Sprintf("UTC%s%d", sign, hours)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, hours, mins)
}

// parseInstant — упорядоченный список матчеров для одной границы окна.
// Переноса "на завтра" здесь нет: обе коррекции выполняет Parse уже над
// парой границ.
func parseInstant(in string, tzOffset float64, now time.Time) (time.Time, bool) {
	if isNowKeyword(in) {
		return now, true
	}
	if m := hoursRe.FindStringSubmatch(in); m != nil {
		h, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(h) * time.Hour), true
	}
	if m := minutesRe.FindStringSubmatch(in); m != nil {
		mins, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(mins) * time.Minute), true
	}
	if m := clockRe.FindStringSubmatch(in); m != nil {
		return clockToUTC(m[1], m[2], m[3], tzOffset, now), true
	}
	return time.Time{}, false
}

// clockToUTC строит сегодняшнюю дату с локальными часами игрока и вычитает
// его смещение: игрок в UTC+1 пишет 6pm — получаем 17:00 UTC.
func clockToUTC(hourStr, minStr, ampm string, tzOffset float64, now time.Time) time.Time {
	hour, _ := strconv.Atoi(hourStr)
	min := 0
	if minStr != "" {
		min, _ = strconv.Atoi(minStr)
	}
	switch strings.ToLower(ampm) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	local := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	return local.Add(-time.Duration(tzOffset * float64(time.Hour)))
}

func classify(start, now time.Time) Type {
	switch {
	case !start.After(now):
		return TypeNow
	case start.Sub(now) < SoonThreshold:
		return TypeSoon
	default:
		return TypeScheduled
	}
}

func formatClock(hour, min, ampm string) string {
	s := hour
	if min != "" {
		s += ":" + min
	}
	return s + strings.ToLower(ampm)
}

func displayPair(startText, endText string) string {
	s := strings.TrimSpace(startText)
	e := strings.TrimSpace(endText)
	if isNowKeyword(strings.ToLower(s)) {
		s = "Now"
	}
	if s == "" {
		s = "Now"
	}
	if e == "" {
		return s
	}
	return s + " - " + e
}

func displayOrNow(texts ...string) string {
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return "Now"
}
