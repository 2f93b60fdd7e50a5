package fingerprint

import "testing"

func TestComputeInvariantUnderKeyOrderAndWhitespace(t *testing.T) {
	a := Request{
		Model:    "claude-3-5-sonnet-latest",
		Messages: []byte(`[{"role":"user","content":"hi"}]`),
		Stream:   false,
	}
	b := Request{
		Model:    "claude-3-5-sonnet-latest",
		Messages: []byte(`[  {   "content" : "hi" , "role":"user"}]`),
		Stream:   false,
	}

	ha, err := Compute(a, true)
	if err != nil {
		t.Fatalf("compute a: %v", err)
	}
	hb, err := Compute(b, true)
	if err != nil {
		t.Fatalf("compute b: %v", err)
	}
	if ha != hb {
		t.Fatalf("expected equal fingerprints, got %q vs %q", ha, hb)
	}
}

func TestComputeDiffersOnModel(t *testing.T) {
	msgs := []byte(`[{"role":"user","content":"hi"}]`)
	ha, _ := Compute(Request{Model: "a", Messages: msgs}, true)
	hb, _ := Compute(Request{Model: "b", Messages: msgs}, true)
	if ha == hb {
		t.Fatalf("expected distinct fingerprints for distinct models")
	}
}

func TestComputeIgnoresMaxTokensWhenExcluded(t *testing.T) {
	msgs := []byte(`[{"role":"user","content":"hi"}]`)
	mt1, mt2 := 100, 200
	ha, _ := Compute(Request{Model: "a", Messages: msgs, MaxTokens: &mt1}, false)
	hb, _ := Compute(Request{Model: "a", Messages: msgs, MaxTokens: &mt2}, false)
	if ha != hb {
		t.Fatalf("expected equal fingerprints when max_tokens excluded from signature")
	}
}

func TestComputeDiffersOnMaxTokensWhenIncluded(t *testing.T) {
	msgs := []byte(`[{"role":"user","content":"hi"}]`)
	mt1, mt2 := 100, 200
	ha, _ := Compute(Request{Model: "a", Messages: msgs, MaxTokens: &mt1}, true)
	hb, _ := Compute(Request{Model: "a", Messages: msgs, MaxTokens: &mt2}, true)
	if ha == hb {
		t.Fatalf("expected distinct fingerprints when max_tokens included in signature")
	}
}
