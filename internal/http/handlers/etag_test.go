package handlers

import "testing"

func TestIfNoneMatchMatches(t *testing.T) {
	tag := etagFor([]byte(`[]`))

	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{tag, true},
		{"W/" + tag, true},
		{`"other", ` + tag, true},
		{`"other"`, false},
	}

	for _, tc := range cases {
		if got := ifNoneMatchMatches(tc.header, tag); got != tc.want {
			t.Errorf("ifNoneMatchMatches(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
