package converter

import "testing"

func TestConvertAmountFloatToCents(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		want   int64
	}{
		{
			name:   "Success",
			amount: 1.23,
			want:   123,
		},
		{
			name:   "Zero",
			amount: 0,
			want:   0,
		},
		{
			name:   "WholeAmount",
			amount: 2500,
			want:   250000,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertAmountFloatToCents(tc.amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %d, got: %d", tc.want, got)
			}
		})
	}
}

func TestConvertCentsToAmountString(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		want   string
	}{
		{
			name:   "Success",
			amount: 250000,
			want:   "2500",
		},
		{
			name:   "Zero",
			amount: 0,
			want:   "0",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ConvertCentsToAmountString(tc.amount)
			if got != tc.want {
				t.Errorf("unexpected result, want: %s, got: %s", tc.want, got)
			}
		})
	}
}
