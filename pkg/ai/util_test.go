package ai

import "testing"

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{
			name:  "standard JSON",
			input: `{"name": "revenue", "count": 2}`,
			want:  sample{Name: "revenue", Count: 2},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"revenue\", \"count\": 2}"`,
			want:  sample{Name: "revenue", Count: 2},
		},
		{
			name:  "malformed but repairable",
			input: `{name: "revenue", count: 2,}`,
			want:  sample{Name: "revenue", Count: 2},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name": "revenue", "count": 2}`,
			want:  sample{Name: "revenue", Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexibleUnrecoverable(t *testing.T) {
	var got sample
	if err := UnmarshalFlexible("", &got); err == nil {
		t.Fatal("expected error for empty input")
	}
}
