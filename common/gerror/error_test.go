package gerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	err := NewErrNotFound("job not found")
	err = err.Wrap(fmt.Errorf("i'm a scary internal error"))
	require.Equal(t, "job not found: i'm a scary internal error", err.Error())
	require.Equal(t, "job not found", err.Message())
	require.Equal(t, http.StatusNotFound, err.HTTPStatusCode())

	err = err.Wrap(NewErrDatabase("query failed", fmt.Errorf("i'm a scary internal error")))
	require.Equal(t, "job not found: query failed: i'm a scary internal error", err.Error())
	require.Equal(t, "job not found", err.Message())
}

func TestErrorChaining(t *testing.T) {
	inner := NewErrThrottled("Rate limit exceeded")
	err := fmt.Errorf("handling webhook: %w", inner)
	require.True(t, IsThrottled(err))
	require.False(t, IsUnauthorized(err))
	gErr := ToThrottled(err)
	require.NotNil(t, gErr)
	require.Equal(t, http.StatusTooManyRequests, gErr.HTTPStatusCode())
}

func TestMultiError(t *testing.T) {
	// Compose a multierror with our tested error in the middle
	var results *multierror.Error

	results = multierror.Append(results, fmt.Errorf("error 1: %w", errors.New("1")))
	results = multierror.Append(results, NewErrScriptExecutionFailed("main script failed", errors.New("2")))
	results = multierror.Append(results, fmt.Errorf("error 3: %w", errors.New("3")))

	// Assert that our Is chaining returns an error in the middle of the chain
	err := results.ErrorOrNil()
	require.True(t, IsScriptExecutionFailed(err))

	// Wrap up the above error with another multierror
	var outerResults *multierror.Error
	outerResults = multierror.Append(err, fmt.Errorf("outer error 1: %w", errors.New("11")))

	// And assert our Is chaining returns the error we are after.
	outerErr := outerResults.ErrorOrNil()
	require.True(t, IsScriptExecutionFailed(outerErr))
}
