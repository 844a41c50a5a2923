package sl

import (
	"errors"
	"testing"

	"golang.org/x/exp/slog"
)

func TestAttrHelpers(t *testing.T) {
	cases := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{
			name: "Err",
			attr: Err(errors.New("boom")),
			key:  "error",
			want: "boom",
		},
		{
			name: "String",
			attr: String("draw_id", "draw-1"),
			key:  "draw_id",
			want: "draw-1",
		},
		{
			name: "Int64",
			attr: Int64("amount", 250000),
			key:  "amount",
			want: "250000",
		},
		{
			name: "Uint64",
			attr: Uint64("value", 12345),
			key:  "value",
			want: "12345",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if tc.attr.Key != tc.key {
				t.Errorf("unexpected key, want: %s, got: %s", tc.key, tc.attr.Key)
			}

			if got := tc.attr.Value.String(); got != tc.want {
				t.Errorf("unexpected value, want: %s, got: %s", tc.want, got)
			}
		})
	}
}
