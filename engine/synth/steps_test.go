package synth

import (
	"encoding/json"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/har"
)

func TestBuildSteps_StrictOrderDenseIndex(t *testing.T) {
	interactions := []Interaction{
		{Category: CategoryAPICall, Entry: har.Entry{Request: har.Request{Method: "GET", URL: "https://a.test/api/v1/x"}, Response: har.Response{Status: 200}}},
		{Category: CategoryFormSubmission, Entry: har.Entry{Request: har.Request{URL: "https://a.test/login"}}, FormData: map[string]string{"email": "a@b.com"}},
		{Category: CategoryNavigation, Entry: har.Entry{Request: har.Request{URL: "https://a.test/"}}},
	}
	steps := BuildSteps("repro1", interactions)
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Kind != domain.StepNavigate || steps[0].OrderIdx != 0 {
		t.Fatalf("expected navigate first at idx 0, got %+v", steps[0])
	}
	if steps[1].Kind != domain.StepSubmit || steps[1].OrderIdx != 1 {
		t.Fatalf("expected submit second at idx 1, got %+v", steps[1])
	}
	if steps[2].Kind != domain.StepAPIVerify || steps[2].OrderIdx != 2 {
		t.Fatalf("expected api_verify third at idx 2, got %+v", steps[2])
	}
	if err := domain.ValidateStepOrder(steps); err != nil {
		t.Fatalf("expected dense valid order: %v", err)
	}
}

func TestSubmitStep_CarriesSynthesizedSelector(t *testing.T) {
	interactions := []Interaction{
		{Category: CategoryFormSubmission, Entry: har.Entry{Request: har.Request{URL: "https://a.test/login"}}, FormData: map[string]string{"email": "a@b.com"}},
	}
	steps := BuildSteps("repro1", interactions)
	var payload SubmitPayload
	if err := json.Unmarshal([]byte(steps[0].Payload), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Fields) != 1 || payload.Fields[0].Name != "email" || payload.Fields[0].Selector == "" {
		t.Fatalf("expected field with non-empty selector, got %+v", payload.Fields)
	}
}
