package callable

import (
	"testing"

	"github.com/joshsim/joshcore/internal/values"
)

type fakeScope struct {
	attrs map[string]values.Value
}

func (f fakeScope) GetAttributeValue(name string) (values.Value, error) {
	return f.attrs[name], nil
}

func (f fakeScope) Has(name string) bool {
	_, ok := f.attrs[name]
	return ok
}

func (f fakeScope) GetAttributes() []string {
	names := make([]string, 0, len(f.attrs))
	for n := range f.attrs {
		names = append(names, n)
	}
	return names
}

func (f fakeScope) GetSynthetic(name string) (Scope, error) { return f, nil }

func TestCallableApply(t *testing.T) {
	scope := fakeScope{attrs: map[string]values.Value{"x": values.Int(7)}}
	c := Callable(func(s Scope) (values.Value, error) { return s.GetAttributeValue("x") })

	got, err := c.Apply(scope)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if i, _ := got.AsInt(); i != 7 {
		t.Errorf("Apply() = %v, want 7", i)
	}
}

func TestHandlerPairAbsentSelectorIsTrue(t *testing.T) {
	pair := HandlerPair{Body: Callable(func(s Scope) (values.Value, error) { return values.Int(1), nil })}
	matched, err := pair.Matches(fakeScope{})
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !matched {
		t.Error("absent selector should match unconditionally")
	}
}

func TestHandlerPairSelector(t *testing.T) {
	pair := HandlerPair{
		Selector: Selector(func(s Scope) (bool, error) {
			v, _ := s.GetAttributeValue("flag")
			return v.AsBoolean()
		}),
		Body: Callable(func(s Scope) (values.Value, error) { return values.Int(2), nil }),
	}

	matched, err := pair.Matches(fakeScope{attrs: map[string]values.Value{"flag": values.Bool(false)}})
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if matched {
		t.Error("selector returning false should not match")
	}
}
