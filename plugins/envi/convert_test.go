package envi

import (
	"math"
	"testing"
)

func TestFahrenheitCelsius(t *testing.T) {
	cases := []struct {
		fahrenheit float64
		celsius    float64
	}{
		{32, 0},
		{212, 100},
		{69.8, 21},
		{-40, -40},
		{98.6, 37},
	}

	for _, tc := range cases {
		if got := roundTenth(FahrenheitToCelsius(tc.fahrenheit)); got != tc.celsius {
			t.Errorf("FahrenheitToCelsius(%v) = %v, want %v", tc.fahrenheit, got, tc.celsius)
		}
		if got := roundTenth(CelsiusToFahrenheit(tc.celsius)); got != tc.fahrenheit {
			t.Errorf("CelsiusToFahrenheit(%v) = %v, want %v", tc.celsius, got, tc.fahrenheit)
		}
	}
}

func TestRGBToHSVKnownValues(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 100, 100},
		{"green", 0, 255, 0, 120, 100, 100},
		{"blue", 0, 0, 255, 240, 100, 100},
		{"white", 255, 255, 255, 0, 0, 100},
		{"black", 0, 0, 0, 0, 0, 0},
		{"yellow", 255, 255, 0, 60, 100, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tc.r, tc.g, tc.b)
			if math.Abs(h-tc.h) > 0.5 || math.Abs(s-tc.s) > 0.5 || math.Abs(v-tc.v) > 0.5 {
				t.Errorf("RGBToHSV(%d, %d, %d) = (%v, %v, %v), want (%v, %v, %v)",
					tc.r, tc.g, tc.b, h, s, v, tc.h, tc.s, tc.v)
			}
		})
	}
}

func TestHSVToRGBKnownValues(t *testing.T) {
	r, g, b := HSVToRGB(0, 100, 100)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("HSVToRGB(0, 100, 100) = (%d, %d, %d), want (255, 0, 0)", r, g, b)
	}

	r, g, b = HSVToRGB(180, 50, 50)
	if r != 64 || g != 128 || b != 128 {
		t.Errorf("HSVToRGB(180, 50, 50) = (%d, %d, %d), want (64, 128, 128)", r, g, b)
	}
}

func TestHSVToRGBClampsOutOfRange(t *testing.T) {
	// Oversaturation must not drive a channel negative and wrap the uint8.
	r, g, b := HSVToRGB(0, 150, 100)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("HSVToRGB(0, 150, 100) = (%d, %d, %d), want (255, 0, 0)", r, g, b)
	}

	r, g, b = HSVToRGB(0, -50, 100)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("HSVToRGB(0, -50, 100) = (%d, %d, %d), want (255, 255, 255)", r, g, b)
	}

	r, g, b = HSVToRGB(0, 100, 150)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("HSVToRGB(0, 100, 150) = (%d, %d, %d), want (255, 0, 0)", r, g, b)
	}

	r, g, b = HSVToRGB(-120, 100, 100)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("HSVToRGB(-120, 100, 100) = (%d, %d, %d), want (0, 0, 255)", r, g, b)
	}
}

func TestRGBHSVRoundTrip(t *testing.T) {
	colors := []RGBColor{
		{255, 0, 0},
		{10, 200, 130},
		{33, 34, 35},
		{0, 0, 1},
		{120, 0, 255},
		{255, 254, 253},
	}

	for _, c := range colors {
		h, s, v := RGBToHSV(c.R, c.G, c.B)
		r, g, b := HSVToRGB(h, s, v)
		if absDiff(r, c.R) > 1 || absDiff(g, c.G) > 1 || absDiff(b, c.B) > 1 {
			t.Errorf("round trip of (%d, %d, %d) via HSV (%v, %v, %v) gave (%d, %d, %d)",
				c.R, c.G, c.B, h, s, v, r, g, b)
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
