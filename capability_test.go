package nftnl

import "testing"

func TestParseKernelRelease(t *testing.T) {
	tests := []struct {
		release      string
		major, minor int
		wantErr      bool
	}{
		{"6.10.4-arch1-1", 6, 10, false},
		{"5.15.0-107-generic", 5, 15, false},
		{"6.10-rc3", 6, 10, false},
		{"4.19.0", 4, 19, false},
		{"6", 0, 0, true},
		{"abc.def", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			major, minor, err := parseKernelRelease(tt.release)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parse = %d.%d, want error", major, minor)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if major != tt.major || minor != tt.minor {
				t.Errorf("parse = %d.%d, want %d.%d", major, minor, tt.major, tt.minor)
			}
		})
	}
}
