package future

// Pair, Triple and Quad are the fixed-arity tuples Zip2/Zip3/Zip4 combine
// their operands into. Go's generics have no variadic heterogeneous type
// parameters and no type-level tuple flattening, so rather than nesting
// (Pair{Pair{A,B},C}) this package flattens at each fixed arity: chaining
// Zip2(Zip2(a,b), c) would nest, so instead use Zip3(a,b,c) directly, or
// reach for ZipWith when the arity needed exceeds four or the intermediate
// struct isn't wanted at all.
type Pair[A, B any] struct {
	First  A
	Second B
}

type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

type Quad[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

// ZipWith waits for both a and b to succeed, then combines their values via
// combine. The result fails with whichever of a, b is first observed to
// fail (wall-clock completion order); if both fail, the one whose failure
// callback happens to run first wins and the other is dropped, matching
// the "first-seen failure wins" rule.
func ZipWith[A, B, E, R any](a Future[A, E], b Future[B, E], combine func(A, B) R) Future[R, E] {
	p := NewPromise[R, E]()
	var (
		lock  = zipLock{ch: make(chan struct{}, 1)}
		av    A
		bv    B
		aDone bool
		bDone bool
	)
	tryComplete := func() {
		if aDone && bDone {
			r, rec, ok := safeCallCombine(combine, av, bv)
			if !ok {
				p.Failure(exceptionFailure[E](rec))
				return
			}
			p.Success(r)
		}
	}
	a.OnSuccess(func(v A) {
		lock.with(func() {
			av = v
			aDone = true
			tryComplete()
		})
	})
	b.OnSuccess(func(v B) {
		lock.with(func() {
			bv = v
			bDone = true
			tryComplete()
		})
	})
	a.OnFailure(func(e E) { p.Failure(e) })
	b.OnFailure(func(e E) { p.Failure(e) })
	return p.Future()
}

// Zip2 combines a and b into a Pair once both succeed.
func Zip2[A, B, E any](a Future[A, E], b Future[B, E]) Future[Pair[A, B], E] {
	return ZipWith(a, b, func(av A, bv B) Pair[A, B] { return Pair[A, B]{First: av, Second: bv} })
}

// Zip3 combines a, b and c into a flat Triple once all three succeed (not
// Pair[Pair[A,B],C] — the tuple-flattening rule applies at construction).
func Zip3[A, B, C, E any](a Future[A, E], b Future[B, E], c Future[C, E]) Future[Triple[A, B, C], E] {
	ab := Zip2(a, b)
	return ZipWith(ab, c, func(p Pair[A, B], cv C) Triple[A, B, C] {
		return Triple[A, B, C]{First: p.First, Second: p.Second, Third: cv}
	})
}

// Zip4 combines a, b, c and d into a flat Quad once all four succeed.
func Zip4[A, B, C, D, E any](a Future[A, E], b Future[B, E], c Future[C, E], d Future[D, E]) Future[Quad[A, B, C, D], E] {
	abc := Zip3(a, b, c)
	return ZipWith(abc, d, func(t Triple[A, B, C], dv D) Quad[A, B, C, D] {
		return Quad[A, B, C, D]{First: t.First, Second: t.Second, Third: t.Third, Fourth: dv}
	})
}

// ZipValue pairs f's eventual success with value.
func ZipValue[T, V, E any](f Future[T, E], value V) Future[Pair[T, V], E] {
	return Map(f, func(v T) Pair[T, V] { return Pair[T, V]{First: v, Second: value} })
}

// zipLock serializes the two success callbacks of ZipWith, both of which
// may run concurrently on different completing goroutines.
type zipLock struct{ ch chan struct{} }

func (l *zipLock) with(fn func()) {
	l.ch <- struct{}{}
	fn()
	<-l.ch
}

func safeCallCombine[A, B, R any](fn func(A, B) R, a A, b B) (result R, rec any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
			ok = false
		}
	}()
	result = fn(a, b)
	ok = true
	return
}
