package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagError_Error(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		cause    error
		expected string
	}{
		{
			name:     "simple error",
			context:  "reading frame",
			cause:    errors.New("short read"),
			expected: "reading frame: short read",
		},
		{
			name:     "empty context",
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &DiagError{Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrapError_Nil(t *testing.T) {
	require.Nil(t, WrapError("some operation", nil))
}

func TestWrapError_Chain(t *testing.T) {
	base := errors.New("base error")
	level1 := WrapError("level 1", base)
	level2 := WrapError("level 2", level1)

	require.True(t, errors.Is(level2, base))

	var derr *DiagError
	require.True(t, errors.As(level2, &derr))
	require.Equal(t, "level 2", derr.Context)
	require.Equal(t, "level 2: level 1: base error", level2.Error())
}

func TestErrorf_MatchesKind(t *testing.T) {
	err := Errorf(ErrEmptySelection, "axis %s has no bin in [%g, %g]", "x", 20.0, 30.0)
	require.ErrorIs(t, err, ErrEmptySelection)
	require.Contains(t, err.Error(), "axis x has no bin in [20, 30]")
	require.False(t, errors.Is(err, ErrConfiguration))
}

func TestErrorList(t *testing.T) {
	var l ErrorList
	require.NoError(t, l.Err())
	require.Equal(t, 0, l.Len())

	l.Add(nil)
	require.Equal(t, 0, l.Len())

	l.Add(Errorf(ErrConfiguration, "argument `subset` must be a dictionary"))
	require.Equal(t, 1, l.Len())
	require.ErrorIs(t, l.Err(), ErrConfiguration)

	l.Add(Errorf(ErrUnknownQuantity, "Bq"))
	err := l.Err()
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, ErrUnknownQuantity)
	require.Equal(t, []string{
		"invalid configuration: argument `subset` must be a dictionary",
		"unknown quantity: Bq",
	}, l.Messages())
	require.Contains(t, err.Error(), "; ")
}
