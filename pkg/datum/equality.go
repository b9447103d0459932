package datum

import "reflect"

// deepEqual is the default change-detection comparison. Scalars compare with
// == and everything else falls back to full structural comparison: slices
// element-wise with a length check, maps key-set plus per-key, structs
// field-wise. A non-composite value therefore gets plain value comparison in
// both modes.
func deepEqual[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// shallowEqual compares by identity: reference kinds (slices, maps, funcs,
// pointers, channels) are equal only when they refer to the same underlying
// data, while value kinds compare with ==. Two structurally identical but
// separately allocated composites are therefore never shallow-equal.
func shallowEqual[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}

	ra := reflect.ValueOf(av)
	rb := reflect.ValueOf(bv)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Slice:
		if ra.IsNil() || rb.IsNil() {
			return ra.IsNil() && rb.IsNil()
		}
		// Same backing array and same length; a re-slice is a distinct value.
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Ptr, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	default:
		if ra.Comparable() {
			return av == bv
		}
		// Value kinds with non-comparable fields have no usable identity.
		return false
	}
}
