package model

import "testing"

func TestJSONObject_ScanValue(t *testing.T) {
	src := JSONObject{"vehicle": "px4-sitl", "sysid": float64(1)}

	v, err := src.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var dst JSONObject
	if err := dst.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if dst["vehicle"] != "px4-sitl" || dst["sysid"] != float64(1) {
		t.Errorf("scanned %v", dst)
	}
}

func TestJSONObject_Nil(t *testing.T) {
	var j JSONObject
	v, err := j.Value()
	if err != nil || v != nil {
		t.Errorf("Value() = %v, %v; want nil, nil", v, err)
	}

	j = JSONObject{"a": "b"}
	if err := j.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if j != nil {
		t.Errorf("Scan(nil) left %v", j)
	}
}

func TestJSONObject_ScanWrongType(t *testing.T) {
	var j JSONObject
	if err := j.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
