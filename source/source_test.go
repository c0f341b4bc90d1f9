package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/foodlabels/binding"
	"github.com/ByLCY/foodlabels/label"
)

var fixtures = map[string]string{
	"bread.label": `label "Sourdough" {
  productName: "Sourdough Bread"
  price: 59
  dueDate: 2024-03-15
  ingredients: "Flour, water, salt"
  allergens: "Gluten"
  instructions: "Store in a dry place"
  isVegan: true
  densityLevel: small
}
`,
	"bread.toml": `productName = "Sourdough Bread"
price = 59
dueDate = 2024-03-15
ingredients = "Flour, water, salt"
allergens = "Gluten"
instructions = "Store in a dry place"
isVegan = true
fontSize = "small"
`,
	"bread.yaml": `productName: Sourdough Bread
price: 59
dueDate: 2024-03-15
ingredients: Flour, water, salt
allergens: Gluten
instructions: Store in a dry place
isVegan: true
density: small
`,
	"bread.json": `{
  "productName": "Sourdough Bread",
  "price": 59,
  "dueDate": "2024-03-15",
  "ingredients": "Flour, water, salt",
  "allergens": "Gluten",
  "instructions": "Store in a dry place",
  "is_vegan": true,
  "densityLevel": "small"
}`,
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
	return path
}

func TestAllFormatsProduceSameRecord(t *testing.T) {
	want := label.Record{
		ProductName:  "Sourdough Bread",
		Price:        "59",
		DueDate:      "2024-03-15",
		Ingredients:  "Flour, water, salt",
		Allergens:    "Gluten",
		Instructions: "Store in a dry place",
		IsVegan:      true,
		Density:      label.DensitySmall,
	}
	for name, content := range fixtures {
		t.Run(name, func(t *testing.T) {
			edits, err := Load(writeFixture(t, name, content), nil)
			if err != nil {
				t.Fatalf("加载失败: %v", err)
			}
			form := label.NewForm()
			if err := form.ApplyAll(edits); err != nil {
				t.Fatalf("应用编辑失败: %v", err)
			}
			if diff := cmp.Diff(want, form.Snapshot()); diff != "" {
				t.Fatalf("record mismatch (-want +got):\n%s", diff)
			}
			if !form.Ready() {
				t.Fatalf("fixture should be ready")
			}
		})
	}
}

func TestMapEditsFollowFieldOrder(t *testing.T) {
	edits, err := Decode(strings.NewReader(`{"isVegan":false,"price":"10","productName":"Rye"}`), "json", nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []label.Edit{
		{Field: label.FieldProductName, Value: "Rye"},
		{Field: label.FieldPrice, Value: "10"},
		{Field: label.FieldIsVegan, Value: "false"},
	}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInterpolatesData(t *testing.T) {
	data, err := binding.ParseData([]byte(`{"price":"49.90"}`))
	if err != nil {
		t.Fatal(err)
	}
	edits, err := Decode(strings.NewReader("price: \"${price}\"\n"), "yml", data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(edits) != 1 || edits[0].Value != "49.90" {
		t.Fatalf("expected interpolated price, got %+v", edits)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeFixture(t, "bread.csv", "x"), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(writeFixture(t, "bad.json", `{"weight": 500}`), nil); !errors.Is(err, label.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := Load(writeFixture(t, "dup.json", `{"density":"small","fontSize":"normal"}`), nil); err == nil {
		t.Fatalf("expected duplicate field error")
	}
	if _, err := Load(writeFixture(t, "nested.yaml", "productName:\n  first: a\n"), nil); err == nil {
		t.Fatalf("expected error for nested value")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestEmptyDensityLoadsAsNormal(t *testing.T) {
	edits, err := Load(writeFixture(t, "rye.toml", "productName = \"Rye\"\ndensityLevel = \"\"\n"), nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	form := label.NewForm()
	if err := form.ApplyAll(edits); err != nil {
		t.Fatalf("empty density rejected: %v", err)
	}
	if got := form.Snapshot().Density; got != label.DensityNormal {
		t.Fatalf("expected normal density, got %q", got)
	}
}
