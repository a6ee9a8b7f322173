package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Optional поле частичного обновления с тремя состояниями:
// не передано (Set=false), явный null (Null=true), значение.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func SetNull[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON вызывается только для присутствующих ключей, в том числе для null
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	var zero T
	o.Set = true
	o.Value = zero
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr значение для nullable-поля сущности: nil при явном null
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// sqlValue nil уходит в базу как NULL
func (o Optional[T]) sqlValue() any {
	if o.Null {
		return nil
	}
	return o.Value
}

// NullFieldError null для колонки NOT NULL
type NullFieldError struct {
	Column string
}

func (e *NullFieldError) Error() string {
	return fmt.Sprintf("Field %s cannot be null", e.Column)
}

// notNull проверяет обязательные поля патча по порядку
type notNull []struct {
	column string
	null   bool
}

func (n notNull) check() error {
	for _, f := range n {
		if f.null {
			return &NullFieldError{Column: f.column}
		}
	}
	return nil
}
