package i18n

import "testing"

func TestGetCatalogFallsBackToBaseLocale(t *testing.T) {
	t.Parallel()

	c := GetCatalog("de-DE")
	if c.Locale() != BaseLocale {
		t.Fatalf("locale = %q, want %q", c.Locale(), BaseLocale)
	}
}

func TestGetCatalogMatchesRegionlessRussian(t *testing.T) {
	t.Parallel()

	c := GetCatalog("ru")
	if c.Locale() != "ru-RU" {
		t.Fatalf("locale = %q, want %q", c.Locale(), "ru-RU")
	}
}

func TestMatchLocaleParsesAcceptLanguage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{header: "", want: "en-US"},
		{header: "ru-RU,ru;q=0.9,en;q=0.8", want: "ru-RU"},
		{header: "fr-FR,fr;q=0.9", want: "en-US"},
		{header: "garbage;;;", want: "en-US"},
	}
	for _, tc := range cases {
		if got := MatchLocale(tc.header); got != tc.want {
			t.Fatalf("MatchLocale(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	got := c.Format(CodeFieldRequired, map[string]string{"Field": "name"})
	if got != "Field name is required" {
		t.Fatalf("formatted message = %q", got)
	}
}

func TestFormatRendersRelatedProcessID(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	got := c.Format(CodeRelatedProcessNotFound, map[string]string{
		"Field": "related_processes",
		"ID":    "7",
	})
	if got != "Related process 7 was not found" {
		t.Fatalf("formatted message = %q", got)
	}
}

func TestFormatUnknownCodeReturnsCode(t *testing.T) {
	t.Parallel()

	c := GetCatalog(BaseLocale)
	if got := c.Format("NO_SUCH_CODE", nil); got != "NO_SUCH_CODE" {
		t.Fatalf("formatted message = %q", got)
	}
}
