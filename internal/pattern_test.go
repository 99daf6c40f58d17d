package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	t.Run("rejects pattern without leading slash", func(t *testing.T) {
		t.Parallel()
		_, err := compilePattern("users/:id")
		require.Error(t, err)
	})

	t.Run("rejects wildcard in the middle", func(t *testing.T) {
		t.Parallel()
		_, err := compilePattern("/files/*/meta")
		require.Error(t, err)
	})

	t.Run("rejects empty parameter name", func(t *testing.T) {
		t.Parallel()
		_, err := compilePattern("/users/:")
		require.Error(t, err)
	})

	t.Run("compiles literals params and wildcard", func(t *testing.T) {
		t.Parallel()
		cp, err := compilePattern("/users/:id/files/*")
		require.NoError(t, err)
		require.True(t, cp.wildcard)
		require.Len(t, cp.segments, 4)
	})
}

func TestPatternMatch(t *testing.T) {
	t.Parallel()

	match := func(t *testing.T, pattern, path string) (Params, bool) {
		t.Helper()
		cp, err := compilePattern(pattern)
		require.NoError(t, err)
		return cp.match(splitPath(path))
	}

	t.Run("exact literal match", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/users", "/users")
		require.True(t, ok)
		require.Empty(t, params)
	})

	t.Run("root pattern matches root only", func(t *testing.T) {
		t.Parallel()
		_, ok := match(t, "/", "/")
		require.True(t, ok)
		_, ok = match(t, "/", "/users")
		require.False(t, ok)
	})

	t.Run("extracts named parameters", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/users/:id/posts/:postID", "/users/42/posts/99")
		require.True(t, ok)
		require.Equal(t, "42", params.Get("id"))
		require.Equal(t, "99", params.Get("postID"))
	})

	t.Run("percent-decodes parameter values", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/users/:name", "/users/jo%20anne")
		require.True(t, ok)
		require.Equal(t, "jo anne", params.Get("name"))
	})

	t.Run("encoded slash in a parameter does not change shape", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/files/:name", "/files/a%2Fb")
		require.True(t, ok)
		require.Equal(t, "a/b", params.Get("name"))
	})

	t.Run("malformed encoding falls back to raw value", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/users/:id", "/users/%zz")
		require.True(t, ok)
		require.Equal(t, "%zz", params.Get("id"))
	})

	t.Run("length mismatch rejects", func(t *testing.T) {
		t.Parallel()
		_, ok := match(t, "/users/:id", "/users/42/extra")
		require.False(t, ok)
		_, ok = match(t, "/users/:id", "/users")
		require.False(t, ok)
	})

	t.Run("wildcard binds decoded remainder", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/static/*", "/static/css/site%20v2.css")
		require.True(t, ok)
		require.Equal(t, "css/site v2.css", params.Get("*"))
	})

	t.Run("wildcard matches empty remainder", func(t *testing.T) {
		t.Parallel()
		params, ok := match(t, "/static/*", "/static")
		require.True(t, ok)
		require.Equal(t, "", params.Get("*"))
	})

	t.Run("wildcard requires aligned prefix", func(t *testing.T) {
		t.Parallel()
		_, ok := match(t, "/static/*", "/assets/app.js")
		require.False(t, ok)
	})
}
