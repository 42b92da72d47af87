package store

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     int
	}{
		{"no token defaults to 1", "Acme_Cloud.json", 1},
		{"explicit version", "X_version7.json", 7},
		{"upper case token", "X_VERSION3.json", 3},
		{"mixed case token", "X_Version12.json", 12},
		{"multi digit", "Acme_Cloud_version42.json", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVersion(tt.filename); got != tt.want {
				t.Errorf("ParseVersion(%q) = %d, want %d", tt.filename, got, tt.want)
			}
		})
	}
}

func TestNextVersionIn(t *testing.T) {
	tests := []struct {
		name       string
		filenames  []string
		prefix     string
		wantNext   int
		wantLatest string
	}{
		{
			name:     "no files",
			prefix:   "Acme_Cloud",
			wantNext: 1,
		},
		{
			name:       "single file without token parses to 1",
			filenames:  []string{"Acme_Cloud.json"},
			prefix:     "Acme_Cloud",
			wantNext:   2,
			wantLatest: "Acme_Cloud.json",
		},
		{
			name: "max of several versions",
			filenames: []string{
				"Acme_Cloud_version1.json",
				"Acme_Cloud_version3.json",
				"Acme_Cloud_version2.json",
			},
			prefix:     "Acme_Cloud",
			wantNext:   4,
			wantLatest: "Acme_Cloud_version3.json",
		},
		{
			name: "prefix filter excludes other entities",
			filenames: []string{
				"Acme_Cloud_version1.json",
				"Beta_Cloud_version9.json",
			},
			prefix:     "Acme_Cloud",
			wantNext:   2,
			wantLatest: "Acme_Cloud_version1.json",
		},
		{
			name: "non-json files ignored",
			filenames: []string{
				"Acme_Cloud_version5.txt",
				"Acme_Cloud_version1.json",
			},
			prefix:     "Acme_Cloud",
			wantNext:   2,
			wantLatest: "Acme_Cloud_version1.json",
		},
		{
			name: "equal max versions break ties lexicographically",
			filenames: []string{
				"Acme_Cloud_a_version2.json",
				"Acme_Cloud_b_version2.json",
			},
			prefix:     "Acme_Cloud",
			wantNext:   3,
			wantLatest: "Acme_Cloud_b_version2.json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, latest := NextVersionIn(tt.filenames, tt.prefix)
			if next != tt.wantNext || latest != tt.wantLatest {
				t.Errorf("NextVersionIn() = (%d, %q), want (%d, %q)",
					next, latest, tt.wantNext, tt.wantLatest)
			}
		})
	}
}

func TestEntityOf(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Acme_Cloud_version3.json", "Acme_Cloud"},
		{"Acme_Cloud.json", "Acme_Cloud"},
		{"Acme_version2_Cloud.json", "Acme_version2_Cloud"},
		{"Acme_Cloud_Action Tracker_version1.json", "Acme_Cloud_Action Tracker"},
	}
	for _, tt := range tests {
		if got := EntityOf(tt.filename); got != tt.want {
			t.Errorf("EntityOf(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
