package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func initBundle(t *testing.T) {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func TestTranslateDefaultsToEnglish(t *testing.T) {
	initBundle(t)
	if got := T(context.Background(), "RationaleEmpty"); got != "No words selected." {
		t.Errorf("T = %q", got)
	}
}

func TestTranslateItalian(t *testing.T) {
	initBundle(t)
	ctx := WithLocalizer(context.Background(), NewLocalizer("it"))
	if got := T(ctx, "RationaleEmpty"); got != "Nessuna parola selezionata." {
		t.Errorf("T = %q", got)
	}
}

func TestTranslateWithData(t *testing.T) {
	initBundle(t)
	data := map[string]any{
		"Hard": 3, "Total": 5, "HardPct": "60.0", "Score": "1.80",
	}
	got := Td(context.Background(), "RationaleHard", data)
	if !strings.Contains(got, "3 of 5 words (60.0%)") {
		t.Errorf("Td = %q", got)
	}
	if !strings.Contains(got, "score 1.80") {
		t.Errorf("Td = %q", got)
	}
}

func TestRecommendationMessages(t *testing.T) {
	initBundle(t)
	ctx := WithLocalizer(context.Background(), NewLocalizer("it"))
	if got := T(ctx, "RecommendMaintain"); !strings.Contains(got, "consolidata") {
		t.Errorf("T = %q", got)
	}
	if got := T(context.Background(), "RecommendStudyMore"); got != "This word needs more study sessions." {
		t.Errorf("T = %q", got)
	}
}

func TestMissingMessageFallsBackToID(t *testing.T) {
	initBundle(t)
	if got := T(context.Background(), "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T = %q", got)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	initBundle(t)
	ctx := WithLocalizer(context.Background(), NewLocalizer("de"))
	if got := T(ctx, "RationaleEmpty"); got != "No words selected." {
		t.Errorf("T = %q", got)
	}
}

func TestMiddlewareInjectsLocalizer(t *testing.T) {
	initBundle(t)
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "RationaleEmpty")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Middleware("it")(next).ServeHTTP(httptest.NewRecorder(), req)
	if got != "Nessuna parola selezionata." {
		t.Errorf("translated through middleware = %q", got)
	}
}
