package synth

import (
	"encoding/json"
	"sort"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/selectors"
)

// NavigatePayload is the JSON payload of a StepNavigate Step.
type NavigatePayload struct {
	URL string `json:"url"`
}

// FieldInput is one form field filled during a StepSubmit Step, carrying
// the synthesized locator chain used to find it at replay time.
type FieldInput struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Selector string `json:"selector"`
}

// SubmitPayload is the JSON payload of a StepSubmit Step.
type SubmitPayload struct {
	URL    string       `json:"url"`
	Fields []FieldInput `json:"fields"`
}

// APIVerifyPayload is the JSON payload of a StepAPIVerify Step.
type APIVerifyPayload struct {
	URL            string `json:"url"`
	Method         string `json:"method"`
	ExpectedStatus int    `json:"expected_status"`
}

// fieldSelector synthesizes a locator chain for a form field, the best
// signal available from a HAR-only capture being the field's name
// attribute (spec.md §4.5 tier 3, semantic: "name").
func fieldSelector(name string) string {
	chain := selectors.Synthesize(selectors.Element{Name: name, Tag: "input"})
	return selectors.Chain(chain)
}

// BuildSteps converts classified interactions into dense, ordered Steps:
// navigation first, then forms, then API verifications (spec.md §4.5).
func BuildSteps(reproID string, interactions []Interaction) []domain.Step {
	var navs, forms, apis []Interaction
	for _, in := range interactions {
		switch in.Category {
		case CategoryNavigation:
			navs = append(navs, in)
		case CategoryFormSubmission:
			forms = append(forms, in)
		case CategoryAPICall:
			apis = append(apis, in)
		}
	}

	var steps []domain.Step
	idx := 0
	for _, in := range navs {
		steps = append(steps, navigateStep(reproID, idx, in))
		idx++
	}
	for _, in := range forms {
		steps = append(steps, submitStep(reproID, idx, in))
		idx++
	}
	for _, in := range apis {
		steps = append(steps, apiVerifyStep(reproID, idx, in))
		idx++
	}
	return steps
}

func navigateStep(reproID string, idx int, in Interaction) domain.Step {
	payload, _ := json.Marshal(NavigatePayload{URL: in.Entry.Request.URL})
	return domain.Step{ReproID: reproID, OrderIdx: idx, Kind: domain.StepNavigate, Payload: string(payload)}
}

func submitStep(reproID string, idx int, in Interaction) domain.Step {
	names := make([]string, 0, len(in.FormData))
	for name := range in.FormData {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]FieldInput, 0, len(names))
	for _, name := range names {
		fields = append(fields, FieldInput{
			Name:     name,
			Value:    in.FormData[name],
			Selector: fieldSelector(name),
		})
	}
	payload, _ := json.Marshal(SubmitPayload{URL: in.Entry.Request.URL, Fields: fields})
	return domain.Step{ReproID: reproID, OrderIdx: idx, Kind: domain.StepSubmit, Payload: string(payload)}
}

func apiVerifyStep(reproID string, idx int, in Interaction) domain.Step {
	payload, _ := json.Marshal(APIVerifyPayload{
		URL:            in.Entry.Request.URL,
		Method:          in.Entry.Request.Method,
		ExpectedStatus: in.Entry.Response.Status,
	})
	return domain.Step{ReproID: reproID, OrderIdx: idx, Kind: domain.StepAPIVerify, Payload: string(payload)}
}
