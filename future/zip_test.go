package future_test

import (
	"errors"
	"testing"

	"github.com/joeycumines/asynqro/future"
	"github.com/stretchr/testify/require"
)

func TestZip2To4(t *testing.T) {
	a := future.Successful[int, error](1)
	b := future.Successful[string, error](`x`)
	c := future.Successful[float64, error](2.5)
	d := future.Successful[bool, error](true)

	pair := future.Zip2(a, b)
	require.Equal(t, future.Pair[int, string]{First: 1, Second: `x`}, pair.Result())

	triple := future.Zip3(a, b, c)
	require.Equal(t, future.Triple[int, string, float64]{First: 1, Second: `x`, Third: 2.5}, triple.Result())

	quad := future.Zip4(a, b, c, d)
	require.Equal(t, future.Quad[int, string, float64, bool]{First: 1, Second: `x`, Third: 2.5, Fourth: true}, quad.Result())
}

func TestZipWithFirstFailureWins(t *testing.T) {
	a := future.Failed[int, error](errors.New(`a-broke`))
	b := future.NewPromise[int, error]()
	z := future.ZipWith(a, b.Future(), func(x, y int) int { return x + y })
	b.Failure(errors.New(`b-broke`))
	require.True(t, z.IsFailed())
	require.EqualError(t, z.FailureReason(), `a-broke`)
}

func TestZipValue(t *testing.T) {
	f := future.ZipValue(future.Successful[int, error](3), `tag`)
	require.Equal(t, future.Pair[int, string]{First: 3, Second: `tag`}, f.Result())
}
