package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorFormatsPath(t *testing.T) {
	t.Parallel()

	underlying := errors.New("yaml: line 3: mapping values are not allowed")
	err := NewParseError("opal.yaml", underlying)

	require.EqualError(t, err, "parse error: opal.yaml: yaml: line 3: mapping values are not allowed")
	require.ErrorIs(t, err, underlying)
}

func TestValidationErrorWithAndWithoutField(t *testing.T) {
	t.Parallel()

	withField := NewValidationError("subreddit", "is required", nil)
	require.EqualError(t, withField, "validation error: subreddit: is required")

	bare := NewValidationError("", "conflicting options", nil)
	require.EqualError(t, bare, "validation error: conflicting options")
}

func TestPluginErrorIdentifiesPlugin(t *testing.T) {
	t.Parallel()

	err := NewPluginError("imgur", errors.New("upload rejected"))
	require.EqualError(t, err, "plugin error [imgur]: upload rejected")

	var pe *PluginError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "imgur", pe.Plugin)
}

func TestPublishErrorWrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("403 forbidden")
	err := NewPublishError("abc123", cause)

	require.EqualError(t, err, "publish error on post abc123: 403 forbidden")
	require.ErrorIs(t, err, cause)
}

func TestIsFatalOnlyForConfigErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"parse", NewParseError("opal.yaml", errors.New("bad yaml")), true},
		{"validation", NewValidationError("maintainer", "is required", nil), true},
		{"wrapped validation", fmt.Errorf("startup: %w", NewValidationError("subreddit", "is required", nil)), true},
		{"plugin", NewPluginError("imgur", errors.New("boom")), false},
		{"publish", NewPublishError("abc", errors.New("boom")), false},
		{"plain", errors.New("network down"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.fatal, IsFatal(tc.err))
		})
	}
}
