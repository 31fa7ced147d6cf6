package dag

import (
	"encoding/json"
	stderrors "errors"
	"testing"
)

func TestNodeResult_Content(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		kind Kind
	}{
		{"json", []byte(`{"a":1}`), KindObject},
		{"empty", nil, KindNull},
		{"text", []byte("plain text"), KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNodeResult(200, nil, tt.body)
			if got := r.Content().Kind(); got != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, got)
			}
		})
	}
}

func TestNodeResult_Outcome(t *testing.T) {
	if !NewNodeResult(204, nil, nil).Succeeded() {
		t.Error("204 should succeed")
	}
	if NewNodeResult(302, nil, nil).Succeeded() {
		t.Error("302 should fail")
	}
	skipped := NewSkippedResult(ErrSkippedDueToAncestorFailure)
	if skipped.Status() != StatusSkipped || skipped.Outcome() != OutcomeSkipped {
		t.Errorf("unexpected skipped result %d/%s", skipped.Status(), skipped.Outcome())
	}
	errs, _ := skipped.Content().Field("Errors")
	if errs.Len() != 1 {
		t.Errorf("expected one entry in Errors, got %s", skipped.Content().Text())
	}
}

func TestNodeResult_HeaderLookup(t *testing.T) {
	r := NewNodeResult(201, map[string]string{"Location": "/x"}, nil)
	if r.Header("Location") != "/x" || r.Header("location") != "/x" {
		t.Errorf("header lookup failed: %q %q", r.Header("Location"), r.Header("location"))
	}
}

func TestNodeResult_JSONShape(t *testing.T) {
	r := NewNodeResult(200, map[string]string{"Content-Type": "application/json"}, []byte(`{"WebId":"E1"}`))
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["Status"] != float64(200) {
		t.Errorf("Status: got %v", decoded["Status"])
	}
	content, _ := decoded["Content"].(map[string]any)
	if content["WebId"] != "E1" {
		t.Errorf("Content: got %v", decoded["Content"])
	}
	if _, ok := decoded["Skipped"]; ok {
		t.Error("Skipped should be omitted for a completed node")
	}
}

func TestNodeResult_DecodeSkipped(t *testing.T) {
	var r NodeResult
	if err := json.Unmarshal([]byte(`{"Status":424,"Headers":{},"Content":null,"Skipped":true,"Error":"parent failed"}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Outcome() != OutcomeSkipped || !stderrors.Is(r.Err(), ErrSkippedDueToAncestorFailure) {
		t.Errorf("expected a skipped result, got %s %v", r.Outcome(), r.Err())
	}
	if err := json.Unmarshal([]byte(`{"Content":{}}`), &r); err == nil {
		t.Error("a result without Status must be rejected")
	}
}

func TestBatchResult_Unsuccessful(t *testing.T) {
	b := &BatchResult{Results: map[NodeID]*NodeResult{
		"2": NewNodeResult(500, nil, nil),
		"1": NewNodeResult(200, nil, nil),
		"3": NewSkippedResult(ErrSkippedDueToAncestorFailure),
	}}
	got := b.Unsuccessful()
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("expected [2 3], got %v", got)
	}
	if b.AllSucceeded() {
		t.Error("AllSucceeded should be false")
	}
	if ids := b.IDs(); len(ids) != 3 || ids[0] != "1" {
		t.Errorf("expected sorted ids, got %v", ids)
	}
}
