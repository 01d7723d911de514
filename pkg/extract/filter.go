package extract

// compiledFilter selects events by type. Exclude takes precedence over
// include; an empty include set allows everything not excluded.
type compiledFilter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func newCompiledFilter(include, exclude []string) *compiledFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return &compiledFilter{include: toSet(include), exclude: toSet(exclude)}
}

func toSet(types []string) map[string]struct{} {
	if len(types) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}

// Allows reports whether events of type t pass the filter. A nil filter
// allows everything.
func (f *compiledFilter) Allows(t string) bool {
	if f == nil {
		return true
	}
	if _, ok := f.exclude[t]; ok {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	_, ok := f.include[t]
	return ok
}
