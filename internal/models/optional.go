package models

import "encoding/json"

// OptionalInt is a three-state JSON integer for partial updates: the field
// may be omitted (Set false), explicitly null (Set true, Valid false), or
// carry a value. A plain *int cannot tell the first two apart, which matters
// for nullable columns like tasks.assignee_id.
type OptionalInt struct {
	Set   bool
	Valid bool
	Value int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
