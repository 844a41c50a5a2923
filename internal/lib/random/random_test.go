package random

import "testing"

func TestNewRandomString(t *testing.T) {
	cases := []struct {
		name string
		size int
	}{
		{
			name: "Size1",
			size: 1,
		},
		{
			name: "Size16",
			size: 16,
		},
		{
			name: "Size64",
			size: 64,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got1 := NewRandomString(tc.size)
			got2 := NewRandomString(tc.size)

			if len(got1) != tc.size {
				t.Errorf("unexpected length, want: %d, got: %d", tc.size, len(got1))
			}

			if tc.size > 8 && got1 == got2 {
				t.Errorf("expected different strings, got equal: %s", got1)
			}
		})
	}
}
