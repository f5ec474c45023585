package research

import (
	"testing"

	"github.com/rankscout/rankscout/internal/ai"
)

func TestInferCategory_ConfirmationWalksBack(t *testing.T) {
	history := []ai.Message{
		{Role: "user", Content: "CRM software"},
		{Role: "assistant", Content: "Plan details"},
	}
	if got := InferCategory("yes", history); got != "CRM software" {
		t.Fatalf("InferCategory = %q, want %q", got, "CRM software")
	}
}

func TestInferCategory_SkipsEarlierConfirmations(t *testing.T) {
	history := []ai.Message{
		{Role: "user", Content: "project management tools"},
		{Role: "assistant", Content: "Plan"},
		{Role: "user", Content: "sounds good"},
		{Role: "assistant", Content: "More plan"},
	}
	if got := InferCategory("ok!", history); got != "project management tools" {
		t.Fatalf("InferCategory = %q", got)
	}
}

func TestInferCategory_NonConfirmationUsedVerbatim(t *testing.T) {
	history := []ai.Message{{Role: "user", Content: "CRM software"}}
	if got := InferCategory("  email marketing platforms ", history); got != "email marketing platforms" {
		t.Fatalf("InferCategory = %q", got)
	}
}

func TestInferCategory_NoHistoryFallsBackToMessage(t *testing.T) {
	if got := InferCategory("yes", nil); got != "yes" {
		t.Fatalf("InferCategory = %q", got)
	}
}

func TestIsAffirmation(t *testing.T) {
	yes := []string{"yes", "Yes.", "OK", "sounds good", "go ahead!", "Proceed"}
	for _, s := range yes {
		if !isAffirmation(s) {
			t.Errorf("isAffirmation(%q) = false, want true", s)
		}
	}
	no := []string{"", "yes but for small businesses", "CRM software", "sounds good for enterprise teams only"}
	for _, s := range no {
		if isAffirmation(s) {
			t.Errorf("isAffirmation(%q) = true, want false", s)
		}
	}
}
