package ptrx

import "time"

// Bool returns a pointer value for the bool value passed in.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer value for the string value passed in.
func String(v string) *string {
	return &v
}

// Int returns a pointer value for the int value passed in.
func Int(v int) *int {
	return &v
}

// Int64 returns a pointer value for the int64 value passed in.
func Int64(v int64) *int64 {
	return &v
}

// Time returns a pointer value for the time.Time value passed in.
func Time(v time.Time) *time.Time {
	return &v
}
