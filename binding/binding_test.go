package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/foodlabels/label"
)

func mustData(t *testing.T, raw string) any {
	t.Helper()
	data, err := ParseData([]byte(raw))
	if err != nil {
		t.Fatalf("解析数据失败: %v", err)
	}
	return data
}

func TestInterpolate(t *testing.T) {
	data := mustData(t, `{"bakery":{"name":"Sourdough Bread","price":59.90,"tags":["fresh","local"]},"vegan":true}`)
	cases := []struct {
		in, want string
	}{
		{"${bakery.name}", "Sourdough Bread"},
		{"${ bakery.price }", "59.90"},
		{"${bakery.tags[1]} bread", "local bread"},
		{"${vegan}", "true"},
		{"${bakery.missing}", "${bakery.missing}"},
		{"${bakery.tags[5]}", "${bakery.tags[5]}"},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, data); got != tc.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInterpolateWithoutData(t *testing.T) {
	if got := Interpolate("${x}", nil); got != "${x}" {
		t.Fatalf("nil data should keep placeholders, got %q", got)
	}
	data, err := ParseData([]byte("  "))
	if err != nil || data != nil {
		t.Fatalf("blank data should decode to nil: %v %v", data, err)
	}
	if _, err := ParseData([]byte("{")); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestInterpolateEdits(t *testing.T) {
	data := mustData(t, `{"price":"42"}`)
	in := []label.Edit{
		{Field: label.FieldProductName, Value: "Rye"},
		{Field: label.FieldPrice, Value: "${price}"},
	}
	got := InterpolateEdits(in, data)
	want := []label.Edit{
		{Field: label.FieldProductName, Value: "Rye"},
		{Field: label.FieldPrice, Value: "42"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
	if in[1].Value != "${price}" {
		t.Fatalf("input edits must not be modified")
	}
}
