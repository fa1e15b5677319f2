package core

import "testing"

func TestNewDictionary(t *testing.T) {
	dict := NewDictionary([]VariableDef{
		{InternalName: "A", DisplayLabel: "first", DataType: Float},
		{InternalName: "A", DisplayLabel: "second", DataType: String},
		{InternalName: "", DisplayLabel: "nameless"},
		{InternalName: "obs", DataType: Integer},
	})

	if dict.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dict.Len())
	}

	def, ok := dict.Lookup("A")
	if !ok {
		t.Fatal("Lookup(A) not found")
	}
	if def.DisplayLabel != "first" || def.DataType != Float {
		t.Errorf("Lookup(A) = %+v, want first definition", def)
	}

	if !dict.IsKnown("obs") || dict.IsKnown("Zz") || dict.IsKnown("") {
		t.Error("IsKnown() mismatch")
	}

	all := dict.All()
	if len(all) != 2 || all[0].InternalName != "A" || all[1].InternalName != "obs" {
		t.Errorf("All() = %+v, want sorted [A obs]", all)
	}
}

func TestDictionary_Nil(t *testing.T) {
	var dict *Dictionary
	if _, ok := dict.Lookup("A"); ok {
		t.Error("nil dictionary should not find anything")
	}
	if dict.Len() != 0 || dict.All() != nil {
		t.Error("nil dictionary should be empty")
	}
}

func TestDictionary_CaseSensitive(t *testing.T) {
	dict := NewDictionary([]VariableDef{{InternalName: "gsw"}})
	if dict.IsKnown("GSW") {
		t.Error("lookup should be case sensitive")
	}
}
