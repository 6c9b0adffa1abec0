package mapping

import "testing"

func TestDetectFrameworks_NormalizesToOne(t *testing.T) {
	files := []TrackedFile{
		{Path: "src/App.jsx", Body: "import React from \"react\"; useState()"},
		{Path: "src/main.py", Body: "from flask import Flask\napp = Flask(__name__)"},
	}
	scores := DetectFrameworks(files, DefaultFrameworkPatterns())
	var total float64
	for _, s := range scores {
		total += s
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("expected scores to sum to 1.0, got %f", total)
	}
	if scores["react"] <= scores["rails"] {
		t.Fatalf("expected react to outscore an unmatched framework: %v", scores)
	}
}

func TestDetectFrameworks_AllZeroWhenNoMatch(t *testing.T) {
	files := []TrackedFile{{Path: "README.txt", Body: "nothing interesting"}}
	scores := DetectFrameworks(files, DefaultFrameworkPatterns())
	for name, s := range scores {
		if s != 0 {
			t.Fatalf("expected all-zero scores, got %s=%f", name, s)
		}
	}
}
