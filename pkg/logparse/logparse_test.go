package logparse

import "testing"

func TestParseLine_WithLoggerAndDetails(t *testing.T) {
	line, ok := ParseLine("2024-01-01T00:00:00Z [auth] ERROR login failed: invalid token")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Level != LevelError {
		t.Errorf("expected ERROR, got %v", line.Level)
	}
	if line.Logger != "auth" {
		t.Errorf("expected logger auth, got %q", line.Logger)
	}
	if line.Message != "login failed" || line.Details != "invalid token" {
		t.Errorf("unexpected message/details: %q / %q", line.Message, line.Details)
	}
}

func TestParseLine_NoLoggerNoDetails(t *testing.T) {
	line, ok := ParseLine("2024-01-01T00:00:00Z WARN disk usage high")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Logger != "" {
		t.Errorf("expected empty logger, got %q", line.Logger)
	}
	if line.Message != "disk usage high" {
		t.Errorf("unexpected message: %q", line.Message)
	}
}

func TestParseLine_NoMatch(t *testing.T) {
	if _, ok := ParseLine("not a log line at all"); ok {
		t.Fatal("expected no match")
	}
}

func TestErrorLines_FiltersLevel(t *testing.T) {
	lines := ParseLines("2024 ERROR boom\n2024 INFO fine\n2024 WARN careful")
	errs := ErrorLines(lines)
	if len(errs) != 1 || errs[0].Message != "boom" {
		t.Fatalf("expected one error line 'boom', got %+v", errs)
	}
}

func TestContainsSeverityToken(t *testing.T) {
	if !ContainsSeverityToken("Traceback (most recent call last):") {
		t.Error("expected Traceback to match")
	}
	if ContainsSeverityToken("all good here") {
		t.Error("expected no match")
	}
}
