package main

import "testing"

func TestProgressUIEnabled(t *testing.T) {
	cases := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{value: "on", want: true},
		{value: "ON", want: true},
		{value: " off ", want: false},
		{value: "sideways", wantErr: true},
	}
	for _, tc := range cases {
		got, err := progressUIEnabled(tc.value)
		if tc.wantErr {
			if err == nil {
				t.Errorf("progressUIEnabled(%q) expected an error", tc.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("progressUIEnabled(%q) returned error: %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("progressUIEnabled(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
