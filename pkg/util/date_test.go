package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2025-03-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimePlainDate(t *testing.T) {
    got, ok := ParseTime("2022-11-30")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Year() != 2022 || got.Month() != time.November || got.Day() != 30 {
        t.Fatalf("unexpected date %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2025, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestMonthsBetween(t *testing.T) {
    a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    b := a.Add(time.Duration(30.44 * 24 * float64(time.Hour)))
    m := MonthsBetween(a, b)
    if m < 0.99 || m > 1.01 {
        t.Fatalf("expected ~1 month, got %v", m)
    }
    if MonthsBetween(b, a) >= 0 {
        t.Fatalf("expected negative months for reversed range")
    }
}

func TestDaysBetween(t *testing.T) {
    a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    b := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
    if d := DaysBetween(a, b); d != 10 {
        t.Fatalf("expected 10 days, got %v", d)
    }
}
