//go:build property
// +build property

package formatter

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genDocument() gopter.Gen {
	return gen.MapOf(
		gen.Identifier(),
		gen.OneGenOf(
			gen.AlphaString().Map(func(s string) interface{} { return s }),
			gen.IntRange(-1000, 1000).Map(func(i int) interface{} { return i }),
			gen.Bool().Map(func(b bool) interface{} { return b }),
			gen.SliceOf(gen.AnyString()).Map(func(s []string) interface{} { return s }),
		),
	)
}

func plain(t *testing.T, text string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}

	return v
}

// TestFormatterProperties checks that serialisation preserves structure
func TestFormatterProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: parse(serialise(D)) == D for every JSON indent width
	properties.Property("json round trip", prop.ForAll(
		func(doc map[string]interface{}, indent int) bool {
			raw, err := json.Marshal(doc)
			if err != nil {
				return false
			}
			pretty, err := Pretty(string(raw), JSON, indent)
			if err != nil {
				return false
			}

			return reflect.DeepEqual(plain(t, string(raw)), plain(t, pretty))
		},
		genDocument(),
		gen.IntRange(1, 8),
	))

	// Property: parse(serialise(parse(Y))) == parse(Y) for YAML without anchors
	properties.Property("yaml round trip", prop.ForAll(
		func(doc map[string]interface{}, indent int) bool {
			raw, _ := json.Marshal(doc)
			yml, err := Convert(string(raw), JSON, indent)
			if err != nil {
				return false
			}
			first, err := Parse(yml, YAML, YAML12)
			if err != nil {
				return false
			}
			again, err := first.Encode(YAML, indent, false)
			if err != nil {
				return false
			}
			second, err := Parse(again, YAML, YAML12)
			if err != nil {
				return false
			}
			a, errA := first.Value()
			b, errB := second.Value()

			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		genDocument(),
		gen.IntRange(2, 8),
	))

	// Property: minified JSON is semantically the input
	properties.Property("minify preserves value", prop.ForAll(
		func(doc map[string]interface{}) bool {
			raw, _ := json.MarshalIndent(doc, "", "   ")
			min, err := Minify(string(raw), JSON)

			return err == nil && reflect.DeepEqual(plain(t, string(raw)), plain(t, min))
		},
		genDocument(),
	))

	properties.TestingRun(t)
}
