package output

import (
	"testing"
)

func TestLimitTop(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name string
		top  int
		want []int
	}{
		{name: "NoLimitWhenZero", top: 0, want: []int{1, 2, 3}},
		{name: "NoLimitWhenNegative", top: -1, want: []int{1, 2, 3}},
		{name: "Limited", top: 2, want: []int{1, 2}},
		{name: "NoLimitWhenTopExceedsLength", top: 5, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := limitTop(items, tt.top)
			if len(got) != len(tt.want) {
				t.Fatalf("len(limitTop(..., %d)) = %d, want %d", tt.top, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("limitTop(..., %d)[%d] = %d, want %d", tt.top, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEntryPaths(t *testing.T) {
	paths := entryPaths(sampleReport())

	if got := paths[testSHA2]; len(got) != 2 || got[0] != "tempest/a.py" || got[1] != "tempest/b.py" {
		t.Errorf("paths[sha2] = %v, want [tempest/a.py tempest/b.py]", got)
	}
	if got := paths[testSHA1]; len(got) != 1 || got[0] != "tempest/a.py" {
		t.Errorf("paths[sha1] = %v, want [tempest/a.py]", got)
	}
}

func TestEntryKinds(t *testing.T) {
	kinds := entryKinds(sampleReport())

	tests := []struct {
		sha  string
		want string
	}{
		{sha: testSHA1, want: kindMerge},
		{sha: testSHA2, want: kindCommit},
		{sha: testSHA3, want: kindCommit},
	}
	for _, tt := range tests {
		if got := kinds[tt.sha]; got != tt.want {
			t.Errorf("kinds[%s] = %q, want %q", tt.sha[:7], got, tt.want)
		}
	}
}
