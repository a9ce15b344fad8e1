package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Band", "State", "Weight"}
	rows := [][]string{
		{"alpha", "Relaxed Focus", "31.0%"},
		{"gamma", "Peak Performance", "9.5%"},
	}
	rightAlign := map[int]bool{2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Band  State            Weight" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "alpha Relaxed Focus     31.0%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "gamma Peak Performance   9.5%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"User", "N"}, [][]string{{"脳波", "1"}, {"ab", "2"}}, nil)
	if lines[1] != "脳波 1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
