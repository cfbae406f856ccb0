package di

import "testing"

type greeter struct{ name string }

var greeterToken = NewToken[*greeter]("test:greeter")

func TestContainer_FactoryBuiltOnce(t *testing.T) {
	c := NewContainer()
	calls := 0
	RegisterToken(c, greeterToken, func(sr ServiceRegistry) *greeter {
		calls++
		return &greeter{name: sr.Get("name").(string)}
	})
	c.Register("name", "deployer")

	first := GetToken(c, greeterToken)
	second := GetToken(c, greeterToken)

	if first != second {
		t.Error("expected the same instance on every resolve")
	}
	if calls != 1 {
		t.Errorf("expected factory to run once, ran %d times", calls)
	}
	if first.name != "deployer" {
		t.Errorf("expected name deployer, got %s", first.name)
	}
}

func TestContainer_UnknownServicePanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	c.Get("missing")
}

func TestContainer_Has(t *testing.T) {
	c := NewContainer()
	c.Register("a", 1)
	c.RegisterFactory("b", func(ServiceRegistry) any { return 2 })

	if !c.Has("a") || !c.Has("b") {
		t.Error("expected registered names to be reported")
	}
	if c.Has("c") {
		t.Error("did not expect unregistered name")
	}
}
