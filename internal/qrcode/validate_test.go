// internal/qrcode/validate_test.go

package qrcode

import "testing"

func TestValidateTimeRule(t *testing.T) {
	cases := []struct {
		name    string
		in      TimeRuleInput
		wantErr bool
	}{
		{"valid window", TimeRuleInput{Start: "09:00", End: "17:00", URL: "https://day.example.com"}, false},
		{"midnight span allowed", TimeRuleInput{Start: "21:00", End: "02:00", URL: "https://night.example.com"}, false},
		{"bad hour", TimeRuleInput{Start: "24:00", End: "17:00", URL: "https://x.example.com"}, true},
		{"bad minute", TimeRuleInput{Start: "09:60", End: "17:00", URL: "https://x.example.com"}, true},
		{"missing colon", TimeRuleInput{Start: "0900", End: "17:00", URL: "https://x.example.com"}, true},
		{"single-digit hour", TimeRuleInput{Start: "9:00", End: "17:00", URL: "https://x.example.com"}, true},
		{"empty url", TimeRuleInput{Start: "09:00", End: "17:00"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateTimeRule(&c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestValidateGeoRule(t *testing.T) {
	cases := []struct {
		name    string
		in      GeoRuleInput
		wantErr bool
	}{
		{"valid", GeoRuleInput{Lat: 40.7, Lon: -74.0, RadiusKm: 5, URL: "https://nyc.example.com"}, false},
		{"equator is fine", GeoRuleInput{Lat: 0, Lon: 0, RadiusKm: 1, URL: "https://x.example.com"}, false},
		{"lat too high", GeoRuleInput{Lat: 90.1, Lon: 0, RadiusKm: 5, URL: "https://x.example.com"}, true},
		{"lat too low", GeoRuleInput{Lat: -90.1, Lon: 0, RadiusKm: 5, URL: "https://x.example.com"}, true},
		{"lon too high", GeoRuleInput{Lat: 0, Lon: 180.5, RadiusKm: 5, URL: "https://x.example.com"}, true},
		{"zero radius", GeoRuleInput{Lat: 0, Lon: 0, RadiusKm: 0, URL: "https://x.example.com"}, true},
		{"negative radius", GeoRuleInput{Lat: 0, Lon: 0, RadiusKm: -2, URL: "https://x.example.com"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateGeoRule(&c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestValidateCreate(t *testing.T) {
	limit := int64(0)
	cases := []struct {
		name    string
		in      CreateInput
		wantErr bool
	}{
		{"minimal", CreateInput{OriginalURL: "https://example.com"}, false},
		{"caller-picked code", CreateInput{OriginalURL: "https://example.com", ShortCode: "promo2026"}, false},
		{"code too short", CreateInput{OriginalURL: "https://example.com", ShortCode: "ab"}, true},
		{"code not alphanumeric", CreateInput{OriginalURL: "https://example.com", ShortCode: "promo-26"}, true},
		{"zero scan limit", CreateInput{OriginalURL: "https://example.com", ScanLimit: &limit}, true},
		{"unknown branding style", CreateInput{OriginalURL: "https://example.com", BrandingStyle: "neon"}, true},
		{"branding too long", CreateInput{OriginalURL: "https://example.com", BrandingDurationSec: 31}, true},
		{"no url", CreateInput{}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateCreate(&c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}
