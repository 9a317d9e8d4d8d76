package future

// InnerMap applies fn to every element of a succeeded Future[[]T, E],
// producing Future[[]U, E]. A failure of f propagates unchanged.
func InnerMap[T, E, U any](f Future[[]T, E], fn func(T) U) Future[[]U, E] {
	return Map(f, func(ts []T) []U {
		us := make([]U, len(ts))
		for i, t := range ts {
			us[i] = fn(t)
		}
		return us
	})
}

// InnerFilter keeps only the elements of a succeeded Future[[]T, E] for
// which pred returns true.
func InnerFilter[T, E any](f Future[[]T, E], pred func(T) bool) Future[[]T, E] {
	return Map(f, func(ts []T) []T {
		out := make([]T, 0, len(ts))
		for _, t := range ts {
			if pred(t) {
				out = append(out, t)
			}
		}
		return out
	})
}

// InnerReduce left-folds the elements of a succeeded Future[[]T, E] into a
// single accumulator value, starting from initial.
func InnerReduce[T, E, Acc any](f Future[[]T, E], fn func(Acc, T) Acc, initial Acc) Future[Acc, E] {
	return Map(f, func(ts []T) Acc {
		acc := initial
		for _, t := range ts {
			acc = fn(acc, t)
		}
		return acc
	})
}

// InnerFlatten collapses a succeeded Future[[][]T, E] by one level of
// nesting, concatenating the inner slices in order.
func InnerFlatten[T, E any](f Future[[][]T, E]) Future[[]T, E] {
	return Map(f, func(tss [][]T) []T {
		total := 0
		for _, ts := range tss {
			total += len(ts)
		}
		out := make([]T, 0, total)
		for _, ts := range tss {
			out = append(out, ts...)
		}
		return out
	})
}
