package walker

import (
	"testing"

	"codescope/internal/entity"
	"codescope/internal/lang"
)

const goSource = `package people

type Person struct {
	Name string
}

type Greeter interface {
	Greet() string
}

func (p *Person) Greet() string {
	return hello(p.Name)
}

func hello(name string) string {
	return "hello " + name
}

func Welcome(p *Person) string {
	return p.Greet()
}
`

func TestGoWalkerStructAndMethod(t *testing.T) {
	res := Extract([]byte(goSource), "people.go", lang.Go)

	person := findSymbol(t, res, "Person")
	if person.Kind != entity.KindStruct {
		t.Errorf("Person kind = %q, want struct", person.Kind)
	}
	if person.Signature != "type Person struct" {
		t.Errorf("Person signature = %q", person.Signature)
	}
	if person.Properties["exported"] != true {
		t.Errorf("Person should be marked exported, props = %v", person.Properties)
	}

	greeter := findSymbol(t, res, "Greeter")
	if greeter.Kind != entity.KindInterface {
		t.Errorf("Greeter kind = %q, want interface", greeter.Kind)
	}

	greet := findSymbol(t, res, "Greet")
	if greet.Kind != entity.KindMethod {
		t.Errorf("Greet kind = %q, want method", greet.Kind)
	}
	if greet.Properties["receiver"] != "(p *Person)" {
		t.Errorf("Greet receiver = %v", greet.Properties["receiver"])
	}
	if greet.Detail.ReturnType != "string" {
		t.Errorf("Greet returnType = %q", greet.Detail.ReturnType)
	}

	rel := findRelation(t, res, greet.ID, person.ID, entity.RelBelongsTo)
	if rel.Properties["role"] != "method" {
		t.Errorf("belongs_to role = %v", rel.Properties["role"])
	}
}

func TestGoWalkerFunctionDetail(t *testing.T) {
	res := Extract([]byte(goSource), "people.go", lang.Go)

	hello := findSymbol(t, res, "hello")
	if hello.Kind != entity.KindFunction {
		t.Errorf("hello kind = %q, want function", hello.Kind)
	}
	if len(hello.Detail.Parameters) != 1 || hello.Detail.Parameters[0] != "name string" {
		t.Errorf("hello parameters = %v", hello.Detail.Parameters)
	}
	if hello.Properties["exported"] == true {
		t.Error("hello should not be marked exported")
	}
}

func TestGoWalkerCalls(t *testing.T) {
	res := Extract([]byte(goSource), "people.go", lang.Go)

	greet := findSymbol(t, res, "Greet")
	hello := findSymbol(t, res, "hello")
	findRelation(t, res, greet.ID, hello.ID, entity.RelCalls)

	// Method calls through a selector (p.Greet()) are not plain identifiers
	// and stay unresolved.
	welcome := findSymbol(t, res, "Welcome")
	for _, r := range res.Relations {
		if r.SourceID == welcome.ID && r.Kind == entity.RelCalls {
			t.Errorf("unexpected calls edge from Welcome to %s", r.TargetID)
		}
	}
}

func TestGoWalkerSymbolIDStable(t *testing.T) {
	a := Extract([]byte(goSource), "people.go", lang.Go)
	b := Extract([]byte(goSource), "people.go", lang.Go)

	if findSymbol(t, a, "Greet").ID != findSymbol(t, b, "Greet").ID {
		t.Error("re-extracting an unchanged file must reproduce symbol ids")
	}
}
