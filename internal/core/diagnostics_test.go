package core

import "testing"

func TestLog_AppendExternal(t *testing.T) {
	tests := []struct {
		text    string
		wantRow int
		wantCol int
	}{
		{"R12: FieldMismatch TooFewFields Too few fields", 12, 0},
		{"R3C4: value problem", 3, 4},
		{"R1, R5: Duplicate primary key", 1, 0},
		{"Mismatched header and columns lengths", 0, 0},
		{"R: no digits", 0, 0},
		{"R7 missing separator", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			log := NewLog()
			log.AppendExternal(tt.text)

			d := log.Entries()[0]
			if d.Row != tt.wantRow || d.Column != tt.wantCol {
				t.Errorf("address = R%dC%d, want R%dC%d", d.Row, d.Column, tt.wantRow, tt.wantCol)
			}
			if d.Text != tt.text {
				t.Errorf("Text = %q, want verbatim %q", d.Text, tt.text)
			}
		})
	}
}

func TestLog_OrderPreservedAndNotDeduplicated(t *testing.T) {
	log := NewLog()
	log.Cellf(2, 1, "%s missing", "A")
	log.General("file problem")
	log.Cellf(2, 1, "%s missing", "A")
	log.Duplicate(1, 2, "k")

	got := diagnosticTexts(log.Entries())
	want := []string{"R2C1: A missing", "file problem", "R2C1: A missing", "R1, R2: Duplicate primary key k"}
	if len(got) != len(want) {
		t.Fatalf("entries = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if n := len(log.Unaddressed()); n != 1 {
		t.Errorf("Unaddressed() = %d entries, want 1", n)
	}
}

func TestLog_EntriesIsCopy(t *testing.T) {
	log := NewLog()
	log.General("one")

	entries := log.Entries()
	entries[0].Text = "changed"

	if log.Entries()[0].Text != "one" {
		t.Error("mutating Entries() result changed the log")
	}
}
