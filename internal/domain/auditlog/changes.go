package auditlog

import "encoding/json"

// ToJSON converts a struct or map into a generic JSON object.
func ToJSON(data interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return result
}

// ComputeChanges returns {field: {old, new}} for every field whose value differs.
// Fields present only in oldData are reported with a nil new value.
func ComputeChanges(oldData, newData map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{})
	for key, newVal := range newData {
		oldVal, exists := oldData[key]
		if !exists || !jsonEqual(oldVal, newVal) {
			changes[key] = map[string]interface{}{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldData {
		if _, exists := newData[key]; !exists {
			changes[key] = map[string]interface{}{"old": oldVal, "new": nil}
		}
	}
	return changes
}

func jsonEqual(a, b interface{}) bool {
	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aBytes) == string(bBytes)
}
