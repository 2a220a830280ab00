package cmd

import (
	"testing"

	"github.com/kozaktomas/photo-index/internal/database"
)

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  database.Record
		want string
	}{
		{
			name: "named and unnamed faces",
			rec:  database.Record{ImagePath: "/photos/beach.jpg", Faces: []string{"Alice", "k2"}, Caption: "two people on a beach"},
			want: "Alice k2 | two people on a beach || /photos/beach.jpg",
		},
		{
			name: "no face",
			rec:  database.Record{ImagePath: "/photos/tree.jpg", Faces: []string{"unknown"}, Caption: "a tree"},
			want: "unknown | a tree || /photos/tree.jpg",
		},
		{
			name: "empty caption",
			rec:  database.Record{ImagePath: "/p.jpg", Faces: []string{"k1"}},
			want: "k1 |  || /p.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRecord(tt.rec); got != tt.want {
				t.Errorf("formatRecord() = %q, want %q", got, tt.want)
			}
		})
	}
}
