package media

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindAuto, false},
		{"Movie", KindMovie, false},
		{"series", KindTV, false},
		{" show ", KindTV, false},
		{"tv", KindTV, false},
		{"anime", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseKind(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalLocale(t *testing.T) {
	tests := []struct {
		lang, region string
		want         Locale
	}{
		{"zh", "CN", LocaleZhCN},
		{"zh", "SG", LocaleZhCN},
		{"zh", "TW", LocaleZhTW},
		{"zh", "HK", LocaleZhTW},
		{"en", "US", LocaleEnUS},
		{"en", "", LocaleEnUS},
		{"en", "GB", ""},
		{"fr", "FR", ""},
	}
	for _, tt := range tests {
		if got := CanonicalLocale(tt.lang, tt.region); got != tt.want {
			t.Errorf("CanonicalLocale(%q, %q) = %q, want %q", tt.lang, tt.region, got, tt.want)
		}
	}
}

func TestLocalizedTextPreferred(t *testing.T) {
	text := LocalizedText{LocaleEnUS: "Oppenheimer", LocaleZhTW: "奧本海默"}
	if got := text.Preferred(); got != "奧本海默" {
		t.Fatalf("Preferred = %q", got)
	}
	text[LocaleZhCN] = "奥本海默"
	if got := text.Preferred(); got != "奥本海默" {
		t.Fatalf("Preferred = %q", got)
	}
	other := LocalizedText{"ja-JP": "オッペンハイマー"}
	if got := other.Preferred(); got != "オッペンハイマー" {
		t.Fatalf("Preferred should fall back to any locale, got %q", got)
	}
}

func TestSetIfAbsentNeverOverwrites(t *testing.T) {
	text := LocalizedText{LocaleZhCN: "已有"}
	if text.SetIfAbsent(LocaleZhCN, "新的") {
		t.Fatal("SetIfAbsent overwrote existing value")
	}
	if !text.SetIfAbsent(LocaleEnUS, " Title ") {
		t.Fatal("SetIfAbsent did not store missing value")
	}
	if text[LocaleEnUS] != "Title" {
		t.Fatalf("value not trimmed: %q", text[LocaleEnUS])
	}
	if text.SetIfAbsent(LocaleZhTW, "   ") {
		t.Fatal("blank value should not be stored")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	rec := NewRecord(KindMovie)
	rec.Titles[LocaleEnUS] = "Oppenheimer"
	rec.Cast = []Person{{Name: "Cillian Murphy", Variants: LocalizedText{LocaleEnUS: "Cillian Murphy"}}}
	rec.Artwork[ArtworkPoster] = []ArtworkAsset{{Category: ArtworkPoster, Data: []byte{1, 2}}}

	snap := rec.Snapshot()
	snap.Titles[LocaleEnUS] = "Changed"
	snap.Cast[0].Variants[LocaleEnUS] = "Changed"

	if rec.Titles[LocaleEnUS] != "Oppenheimer" {
		t.Fatal("snapshot shares titles map")
	}
	if rec.Cast[0].Variants[LocaleEnUS] != "Cillian Murphy" {
		t.Fatal("snapshot shares cast variants")
	}
	if snap.Artwork[ArtworkPoster][0].Data != nil {
		t.Fatal("snapshot should drop artwork bytes")
	}
}

func TestArtworkAssetURLs(t *testing.T) {
	a := ArtworkAsset{SourceURL: "a", Fallbacks: []string{"b", "a", "", "c"}}
	got := a.URLs()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("URLs = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("URLs = %v, want %v", got, want)
		}
	}
}

func TestReportFinalize(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r := NewReport("run", "Oppenheimer", start)
	r.Warn(WarningArtwork, "artwork_fetch", "poster failed")
	r.Fail("write_error", "write", "disk full")
	r.Fail("internal", "report", "ignored")
	r.Finalize(start.Add(2 * time.Second))

	if r.Status != StatusFailed || r.Failure.Kind != "write_error" {
		t.Fatalf("unexpected failure: %+v", r.Failure)
	}
	if r.Elapsed != 2*time.Second {
		t.Fatalf("elapsed = %v", r.Elapsed)
	}
	if r.WrittenFiles == nil || r.SkippedStages == nil {
		t.Fatal("expected non-nil slices after Finalize")
	}
	if len(r.WarningsOf(WarningArtwork)) != 1 {
		t.Fatal("expected one artwork warning")
	}
}
