package logger

import (
	"bytes"
	"os"
	"testing"
)

func resetLogger() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer resetLogger()

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestLevels(t *testing.T) {
	defer resetLogger()

	tests := []struct {
		name    string
		verbose bool
		log     func(string, ...any)
		want    string
	}{
		{"debug verbose", true, Debug, "[DEBUG] face 3 of img.jpg\n"},
		{"debug quiet", false, Debug, ""},
		{"info verbose", true, Info, "[INFO] face 3 of img.jpg\n"},
		{"info quiet", false, Info, ""},
		{"warn quiet", false, Warn, "[WARN] face 3 of img.jpg\n"},
		{"error quiet", false, Error, "[ERROR] face 3 of img.jpg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(tt.verbose)

			tt.log("face %d of %s", 3, "img.jpg")

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}
