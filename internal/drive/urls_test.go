package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCSVURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "drive file view link",
			in:   "https://drive.google.com/file/d/1AbC_d-9/view?usp=sharing",
			want: "https://drive.google.com/uc?id=1AbC_d-9",
		},
		{
			name: "sheet edit link",
			in:   "https://docs.google.com/spreadsheets/d/1Jt7Erf/edit?usp=sharing",
			want: "https://docs.google.com/spreadsheets/d/1Jt7Erf/export?format=csv",
		},
		{
			name: "sheet with tab in fragment",
			in:   "https://docs.google.com/spreadsheets/d/1Jt7Erf/edit#gid=42",
			want: "https://docs.google.com/spreadsheets/d/1Jt7Erf/export?format=csv&gid=42",
		},
		{
			name: "sheet with tab in query",
			in:   "https://docs.google.com/spreadsheets/d/1Jt7Erf/edit?gid=7&usp=sharing",
			want: "https://docs.google.com/spreadsheets/d/1Jt7Erf/export?format=csv&gid=7",
		},
		{
			name: "plain csv url untouched",
			in:   "https://example.com/data/prp.csv",
			want: "https://example.com/data/prp.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCSVURL(tt.in))
		})
	}
}

func TestExtractFileID(t *testing.T) {
	id, ok := ExtractFileID("https://drive.google.com/file/d/abc123/view")
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)

	id, ok = ExtractFileID("https://docs.google.com/spreadsheets/d/sheet9?usp=sharing")
	assert.True(t, ok)
	assert.Equal(t, "sheet9", id)

	_, ok = ExtractFileID("https://example.com/file.csv")
	assert.False(t, ok)

	_, ok = ExtractFileID("https://drive.google.com/file/d/")
	assert.False(t, ok)
}
