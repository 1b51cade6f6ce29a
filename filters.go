package dico

// Filter transforms a plain mapping during export (after the view projection)
// or import (before assignment). Filters may mutate and return their input.
type Filter func(map[string]any) map[string]any

// RenameField returns a filter moving the value under oldName to newName.
// Absent or nil values are left alone.
func RenameField(oldName, newName string) Filter {
	return func(data map[string]any) map[string]any {
		v, ok := data[oldName]
		if !ok {
			return data
		}
		delete(data, oldName)
		if v != nil {
			data[newName] = v
		}
		return data
	}
}

// FormatField returns a filter replacing the value under name with fn(value).
func FormatField(name string, fn func(any) any) Filter {
	return func(data map[string]any) map[string]any {
		if v, ok := data[name]; ok && v != nil {
			data[name] = fn(v)
		}
		return data
	}
}

// Chain composes filters, applying them in order.
func Chain(filters ...Filter) Filter {
	return func(data map[string]any) map[string]any {
		return runFilters(filters, data)
	}
}

func runFilters(filters []Filter, data map[string]any) map[string]any {
	for _, f := range filters {
		if f == nil {
			continue
		}
		data = f(data)
		if data == nil {
			data = map[string]any{}
		}
	}
	return data
}
