package manifest

import "testing"

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
batches:
  - name: core
    strict_order: true
    resources:
      - url: https://example.com/json.lua
        verify: json
      - url: https://example.com/app.lua
        verify: app.init
  - name: extras
    resources:
      - url: file://extras.lua
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(m.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(m.Batches))
	}
	core := m.Batches[0]
	if core.Name != "core" || !core.StrictOrder {
		t.Errorf("core batch = %+v", core)
	}
	if len(core.Resources) != 2 || core.Resources[1].Verify != "app.init" {
		t.Errorf("core resources = %+v", core.Resources)
	}
	if m.Batches[1].StrictOrder {
		t.Error("extras should default to loose ordering")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unnamed batch", "batches:\n  - resources:\n      - url: u\n"},
		{"empty batch", "batches:\n  - name: a\n"},
		{"missing url", "batches:\n  - name: a\n    resources:\n      - verify: x\n"},
		{"duplicate names", "batches:\n  - name: a\n    resources:\n      - url: u\n  - name: a\n    resources:\n      - url: v\n"},
		{"not yaml", "batches: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.doc)
			}
		})
	}
}
