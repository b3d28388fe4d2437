package patch

import (
	"encoding/json"
	"testing"
)

type payload struct {
	Name    Field[string] `json:"name"`
	Count   Field[int]    `json:"count"`
	Comment Field[string] `json:"comment"`
}

func TestUnmarshalTriState(t *testing.T) {
	var p payload
	if err := json.Unmarshal([]byte(`{"name":"x","comment":null}`), &p); err != nil {
		t.Fatal(err)
	}
	name := ""
	p.Name.Apply(&name)
	if !p.Name.Present() || name != "x" {
		t.Fatalf("name: want present x, got %+v", p.Name)
	}
	if p.Count.IsSet() {
		t.Fatalf("count should be absent")
	}
	if !p.Comment.IsNull() || p.Comment.Present() {
		t.Fatalf("comment should be explicit null, got %+v", p.Comment)
	}
}

func TestApply(t *testing.T) {
	var sent payload
	if err := json.Unmarshal([]byte(`{"comment":null}`), &sent); err != nil {
		t.Fatal(err)
	}
	s := "old"
	Field[string]{}.Apply(&s)
	sent.Comment.Apply(&s)
	if s != "old" {
		t.Fatalf("absent/null must not overwrite, got %q", s)
	}
	Value("new").Apply(&s)
	if s != "new" {
		t.Fatalf("got %q", s)
	}

	var p *string
	Field[string]{}.ApplyPtr(&p)
	if p != nil {
		t.Fatalf("absent must leave nil")
	}
	Value("v").ApplyPtr(&p)
	if p == nil || *p != "v" {
		t.Fatalf("got %v", p)
	}
}

func TestMarshalOmitzero(t *testing.T) {
	type out struct {
		A Field[string] `json:"a,omitzero"`
		B Field[string] `json:"b,omitzero"`
	}
	b, err := json.Marshal(out{A: Value("x")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":"x"}` {
		t.Fatalf("got %s", b)
	}
}
