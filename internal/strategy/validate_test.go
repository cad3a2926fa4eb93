package strategy

import "testing"

func TestValidateShapeAcceptsMatchingContent(t *testing.T) {
	schema := []byte(`{"type":"object","required":["main_title"],"properties":{"main_title":{"type":"string"}}}`)
	content := map[string]interface{}{"main_title": "hello"}
	if err := ValidateShape(schema, content); err != nil {
		t.Errorf("ValidateShape() error = %v, want nil", err)
	}
}

func TestValidateShapeRejectsMissingRequiredField(t *testing.T) {
	schema := []byte(`{"type":"object","required":["main_title"],"properties":{"main_title":{"type":"string"}}}`)
	content := map[string]interface{}{}
	if err := ValidateShape(schema, content); err == nil {
		t.Error("ValidateShape() should error when a required field is missing")
	}
}

func TestValidateShapeTreatsEmptySchemaAsUnconstrained(t *testing.T) {
	if err := ValidateShape(nil, map[string]interface{}{"anything": "goes"}); err != nil {
		t.Errorf("ValidateShape() error = %v, want nil for empty schema", err)
	}
}
