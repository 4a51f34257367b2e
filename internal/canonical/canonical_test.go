package canonical

import (
	"testing"
)

func TestMarshal_SortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{"b": 1, "a": 2, "c": 3})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"a":2,"b":1,"c":3}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshal_NestedMaps(t *testing.T) {
	got, err := Marshal(map[string]any{
		"outer": map[string]any{"z": true, "a": nil},
	})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"outer":{"a":null,"z":true}}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal(map[string]any{"s": "<a&b>"})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"s":"<a&b>"}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent (NFD) must serialize identically to
	// the precomposed form (NFC).
	nfd := "Café"
	nfc := "Café"

	a, err := Marshal(map[string]any{"name": nfd})
	if err != nil {
		t.Fatalf("Marshal(nfd) failed: %v", err)
	}
	b, err := Marshal(map[string]any{"name": nfc})
	if err != nil {
		t.Fatalf("Marshal(nfc) failed: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("NFD and NFC forms serialize differently: %s vs %s", a, b)
	}
}

func TestMarshal_Structs(t *testing.T) {
	type inner struct {
		B string `json:"b"`
		A int    `json:"a"`
	}
	got, err := Marshal(inner{B: "x", A: 7})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"a":7,"b":"x"}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestMarshal_IntegersStayIntegers(t *testing.T) {
	got, err := Marshal(map[string]any{"n": int64(9007199254740993)})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"n":9007199254740993}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s (integer precision lost)", got, want)
	}
}

func TestEqual(t *testing.T) {
	a := map[string]any{"x": 1, "y": []any{"a", "b"}}
	b := map[string]any{"y": []any{"a", "b"}, "x": 1}

	equal, err := Equal(a, b)
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if !equal {
		t.Error("Equal() = false for order-insensitive equal maps")
	}

	c := map[string]any{"x": 2}
	equal, err = Equal(a, c)
	if err != nil {
		t.Fatalf("Equal() failed: %v", err)
	}
	if equal {
		t.Error("Equal() = true for different maps")
	}
}
