package catalog

import (
	"encoding/json"
	"testing"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"0", NotImportant, false},
		{"4", NonNegotiable, false},
		{"Nice to have", NiceToHave, false},
		{"don't care", DontCare, false},
		{"non_negotiable", NonNegotiable, false},
		{"Non-negotiable", NonNegotiable, false},
		{"important", Important, false},
		{"5", 0, true},
		{"urgent", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPriority_Weight(t *testing.T) {
	want := map[Priority]float64{
		NotImportant:  0,
		DontCare:      0,
		NiceToHave:    1,
		Important:     2,
		NonNegotiable: 0,
	}
	for p, w := range want {
		if got := p.Weight(); got != w {
			t.Errorf("%v.Weight() = %v, want %v", p, got, w)
		}
	}
}

func TestPriority_Gates(t *testing.T) {
	all := Toggles{NonNegotiable: true, Important: true, NiceToHave: true}
	for _, p := range []Priority{NotImportant, DontCare} {
		if p.gates(all) {
			t.Errorf("%v should never gate a filter", p)
		}
	}
	if NonNegotiable.gates(Toggles{Important: true, NiceToHave: true}) {
		t.Error("Non-negotiable gated without its toggle")
	}
	if !Important.gates(Toggles{Important: true}) {
		t.Error("Important should gate with its toggle")
	}
	if !NiceToHave.gates(Toggles{NiceToHave: true}) {
		t.Error("Nice to have should gate with its toggle")
	}
}

func TestPriority_JSON(t *testing.T) {
	data, err := json.Marshal(Important)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "3" {
		t.Errorf("Marshal(Important) = %s, want 3", data)
	}

	for _, in := range []string{`3`, `"important"`, `"Important"`} {
		var p Priority
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if p != Important {
			t.Errorf("Unmarshal(%s) = %v, want Important", in, p)
		}
	}
	var p Priority
	if err := json.Unmarshal([]byte(`9`), &p); err == nil {
		t.Error("expected error for out-of-range priority")
	}
}

func TestPriority_String(t *testing.T) {
	if got := DontCare.String(); got != "Don't care" {
		t.Errorf("DontCare.String() = %q", got)
	}
	if got := Priority(7).String(); got != "Priority(7)" {
		t.Errorf("Priority(7).String() = %q", got)
	}
}
