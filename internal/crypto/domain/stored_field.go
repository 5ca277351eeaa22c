package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StoredField is the storable form of an encrypted field value.
//
// Data is base64(iv||ciphertext) and Key is base64(wrapped data key). It
// implements driver.Valuer and sql.Scanner so it can live in a JSON column.
type StoredField struct {
	Data string `json:"data"`
	Key  string `json:"key"`
}

// IsZero reports whether the field carries no encrypted value.
func (f StoredField) IsZero() bool {
	return f.Data == "" && f.Key == ""
}

// Value implements driver.Valuer.
func (f StoredField) Value() (driver.Value, error) {
	if f.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *StoredField) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = StoredField{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("cannot scan %T into StoredField", src)
	}
}
