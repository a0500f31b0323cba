package domain

import (
	"testing"
	"time"
)

func TestPrettyShutter(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{2.5, "2.5"},
		{30, "30"},
		{0.5, "1/2"},
		{1.0 / 125, "1/125"},
		{0.0079, "1/127"},
		{0.001, "1/1000"},
	}
	for _, tt := range tests {
		if got := PrettyShutter(tt.in); got != tt.want {
			t.Errorf("PrettyShutter(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSecondOfDayString(t *testing.T) {
	tests := map[SecondOfDay]string{
		0:                 "00:00:00",
		57823:             "16:03:43",
		HMS(23, 59, 59):   "23:59:59",
		SecondOfDay(-61):  "-00:01:01",
		SecondOfDay(3661): "01:01:01",
	}
	for in, want := range tests {
		if got := in.String(); got != want {
			t.Errorf("SecondOfDay(%d).String() = %q, want %q", int(in), got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                              "0s",
		42 * time.Second:               "42s",
		2*time.Minute + 9*time.Second:  "2m 9s",
		MaxTotality:                    "7m 32s",
		time.Hour + 2*time.Second:      "1h 0m 2s",
		-(3*time.Minute + time.Second): "-3m 1s",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestExposureString(t *testing.T) {
	e := Exposure{Aperture: 4, ISO: 1600, Shutter: 1}
	if got, want := e.String(), "ISO: 1600 Aperture: 4.0 shutter: 1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
