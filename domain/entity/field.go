package entity

import "fmt"

// FieldStatus distinguishes a decoded value from a value that does not exist
// and from one whose backing memory could not be read or interpreted.
type FieldStatus uint8

const (
	StatusAbsent FieldStatus = iota
	StatusPresent
	StatusUnreadable
)

// Field is a tri-state output value. The zero value is Absent.
type Field[T any] struct {
	value  T
	status FieldStatus
}

func Present[T any](v T) Field[T] {
	return Field[T]{value: v, status: StatusPresent}
}

func Absent[T any]() Field[T] {
	return Field[T]{status: StatusAbsent}
}

func Unreadable[T any]() Field[T] {
	return Field[T]{status: StatusUnreadable}
}

func (f Field[T]) Status() FieldStatus {
	return f.status
}

func (f Field[T]) IsPresent() bool {
	return f.status == StatusPresent
}

func (f Field[T]) IsUnreadable() bool {
	return f.status == StatusUnreadable
}

// Value returns the value and whether it is present.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.status == StatusPresent
}

func (f Field[T]) String() string {
	switch f.status {
	case StatusPresent:
		return fmt.Sprint(f.value)
	case StatusUnreadable:
		return "N/A"
	default:
		return "-"
	}
}
