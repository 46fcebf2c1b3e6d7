package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStencilErrorError(t *testing.T) {
	testCases := []struct {
		name     string
		err      *StencilError
		contains []string
	}{
		{
			name:     "config error",
			err:      MissingInputError("entry pattern", "pass at least one glob"),
			contains: []string{"[ERR_MISSING_INPUT]", "entry pattern"},
		},
		{
			name: "data error surfaces both paths",
			err: NewDataResolutionError(ErrCodeNotFound, "./about.json", "/srv/site/about.json",
				stderrors.New("no such file")),
			contains: []string{"./about.json", "/srv/site/about.json", "no such file"},
		},
		{
			name:     "render error names the template",
			err:      NewRenderError(ErrCodeRenderFailed, "site/index.tmpl", stderrors.New("unexpected EOF")),
			contains: []string{"site/index.tmpl", "render failed", "unexpected EOF"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.err.Error()
			for _, want := range tc.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestStencilErrorResolvedPathOmittedWhenEqual(t *testing.T) {
	err := NewDataResolutionError(ErrCodeNotFound, "/a/b.json", "/a/b.json", nil)
	assert.Equal(t, "[ERR_NOT_FOUND] /a/b.json cannot load injected data", err.Error())
}

func TestStencilErrorUnwrapAndIs(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewIOError(ErrCodeWriteFailed, "dist/index.html", "write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, stderrors.Is(err, &StencilError{Type: ErrorTypeIO, Code: ErrCodeWriteFailed}))
	assert.False(t, stderrors.Is(err, &StencilError{Type: ErrorTypeIO, Code: ErrCodeCopyFailed}))
}

func TestIsType(t *testing.T) {
	render := NewRenderError(ErrCodeHookFailed, "site/a.tmpl", stderrors.New("boom"))
	wrapped := fmt.Errorf("while building: %w", render)

	assert.True(t, IsRenderError(wrapped))
	assert.False(t, IsConfigError(wrapped))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeRender))
	assert.False(t, IsType(nil, ErrorTypeRender))
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())

	collector.AddError(nil)
	assert.False(t, collector.HasErrors())

	first := stderrors.New("first")
	second := stderrors.New("second")
	collector.AddError(first)
	collector.AddError(second)

	require.True(t, collector.HasErrors())
	assert.Equal(t, []error{first, second}, collector.GetAllErrors())
	assert.ErrorIs(t, collector.Err(), second)
}

func TestErrorCollectorConcurrency(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.AddError(fmt.Errorf("task %d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, collector.GetAllErrors(), 20)
}

func TestAsStencilError(t *testing.T) {
	cause := NewIOError(ErrCodeCopyFailed, "site/a.css", "cannot copy asset", stderrors.New("disk full"))
	wrapped := fmt.Errorf("copy: %w", cause)

	se, ok := AsStencilError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCopyFailed, se.Code)
	assert.Equal(t, ErrorTypeIO, se.Type)

	_, ok = AsStencilError(stderrors.New("plain"))
	assert.False(t, ok)
}
