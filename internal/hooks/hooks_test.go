package hooks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeSaveAdapters(t *testing.T) {
	ctx := context.Background()

	t.Run("sync", func(t *testing.T) {
		hook := BeforeSaveFunc(func(_ context.Context, rendered, root, path string) (string, error) {
			return rendered + "|" + root + "|" + path, nil
		})
		out, err := hook.BeforeSave(ctx, "x", "dist", "site/a.tmpl")
		require.NoError(t, err)
		assert.Equal(t, "x|dist|site/a.tmpl", out)
	})

	t.Run("async", func(t *testing.T) {
		hook := AsyncBeforeSaveFunc(func(_ context.Context, rendered, _, _ string) <-chan Result {
			ch := make(chan Result, 1)
			go func() {
				time.Sleep(5 * time.Millisecond)
				ch <- Result{Value: strings.ToUpper(rendered)}
			}()
			return ch
		})
		out, err := hook.BeforeSave(ctx, "abc", "", "")
		require.NoError(t, err)
		assert.Equal(t, "ABC", out)
	})

	t.Run("async failure", func(t *testing.T) {
		boom := errors.New("boom")
		hook := AsyncBeforeSaveFunc(func(context.Context, string, string, string) <-chan Result {
			ch := make(chan Result, 1)
			ch <- Result{Err: boom}
			return ch
		})
		_, err := hook.BeforeSave(ctx, "abc", "", "")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("closed without value", func(t *testing.T) {
		hook := AsyncBeforeSaveFunc(func(context.Context, string, string, string) <-chan Result {
			ch := make(chan Result)
			close(ch)
			return ch
		})
		_, err := hook.BeforeSave(ctx, "abc", "", "")
		assert.Error(t, err)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		hook := AsyncBeforeSaveFunc(func(context.Context, string, string, string) <-chan Result {
			return make(chan Result)
		})
		_, err := hook.BeforeSave(cancelled, "abc", "", "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAfterCopyAdapters(t *testing.T) {
	ctx := context.Background()
	var calls []string
	sync := AfterCopyFunc(func(_ context.Context, src, dst string) error {
		calls = append(calls, src+">"+dst)
		return nil
	})
	require.NoError(t, sync.AfterCopy(ctx, "site/a.css", "dist/a.css"))
	assert.Equal(t, []string{"site/a.css>dist/a.css"}, calls)

	async := AsyncAfterCopyFunc(func(context.Context, string, string) <-chan error {
		ch := make(chan error)
		close(ch)
		return ch
	})
	assert.NoError(t, async.AfterCopy(ctx, "a", "b"))

	failing := AsyncAfterCopyFunc(func(context.Context, string, string) <-chan error {
		ch := make(chan error, 1)
		ch <- errors.New("denied")
		return ch
	})
	assert.EqualError(t, failing.AfterCopy(ctx, "a", "b"), "denied")
}

func TestDoneFunc(t *testing.T) {
	var got Report
	hook := DoneFunc(func(_ context.Context, report Report) error {
		got = report
		return nil
	})
	require.NoError(t, hook.Done(context.Background(), Report{BuildID: "id", Sitemap: "a.html"}))
	assert.Equal(t, "id", got.BuildID)
	assert.Equal(t, "a.html", got.Sitemap)
}

func TestChain(t *testing.T) {
	appendHook := func(suffix string) BeforeSave {
		return BeforeSaveFunc(func(_ context.Context, rendered, _, _ string) (string, error) {
			return rendered + suffix, nil
		})
	}

	out, err := Chain{appendHook("1"), nil, appendHook("2")}.BeforeSave(context.Background(), "x", "", "")
	require.NoError(t, err)
	assert.Equal(t, "x12", out)

	failing := BeforeSaveFunc(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("nope")
	})
	_, err = Chain{appendHook("1"), failing, appendHook("2")}.BeforeSave(context.Background(), "x", "", "")
	assert.ErrorContains(t, err, "nope")
}

func TestSetWithBeforeSave(t *testing.T) {
	upper := BeforeSaveFunc(func(_ context.Context, rendered, _, _ string) (string, error) {
		return strings.ToUpper(rendered), nil
	})
	exclaim := BeforeSaveFunc(func(_ context.Context, rendered, _, _ string) (string, error) {
		return rendered + "!", nil
	})

	assert.Nil(t, Set{}.WithBeforeSave(nil).BeforeSave)

	set := Set{}.WithBeforeSave(upper).WithBeforeSave(exclaim)
	out, err := set.BeforeSave.BeforeSave(context.Background(), "hi", "", "")
	require.NoError(t, err)
	assert.Equal(t, "HI!", out)
}

func TestForTransform(t *testing.T) {
	hook, err := ForTransform("")
	require.NoError(t, err)
	assert.Nil(t, hook)

	hook, err = ForTransform(TransformNormalize)
	require.NoError(t, err)
	assert.IsType(t, HTMLNormalizer{}, hook)

	_, err = ForTransform("minify")
	assert.Error(t, err)
}

func TestHTMLNormalizer(t *testing.T) {
	out, err := HTMLNormalizer{}.BeforeSave(context.Background(), "<p class=a>hi", "dist", "site/index.tmpl")
	require.NoError(t, err)
	assert.Equal(t, `<html><head></head><body><p class="a">hi</p></body></html>`, out)
}
