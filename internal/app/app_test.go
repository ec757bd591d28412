package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/exline/internal/register"
	"github.com/dshills/exline/internal/ui"
)

type fixture struct {
	dir     string
	config  string
	file    string
	history string
	out     *bytes.Buffer
}

func newFixture(t *testing.T, configText, fileText string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		config:  filepath.Join(dir, "config.toml"),
		file:    filepath.Join(dir, "notes.txt"),
		history: filepath.Join(dir, "history.jsonl"),
		out:     &bytes.Buffer{},
	}
	if configText != "" {
		require.NoError(t, os.WriteFile(f.config, []byte(configText), 0o644))
	}
	if fileText != "" {
		require.NoError(t, os.WriteFile(f.file, []byte(fileText), 0o644))
	}
	return f
}

func (f *fixture) options(input string) Options {
	return Options{
		ConfigPath:      f.config,
		File:            f.file,
		LogFile:         filepath.Join(f.dir, "exline.log"),
		HistoryFile:     f.history,
		In:              strings.NewReader(input),
		Out:             f.out,
		PrompterOptions: []ui.PrompterOption{ui.WithInteractive(false)},
	}
}

func newApp(t *testing.T, opts Options) *Application {
	t.Helper()
	app, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApplication_ExecEditsAndWrites(t *testing.T) {
	f := newFixture(t, "", "pear\napple\nfig\n")
	app := newApp(t, f.options(""))

	err := app.Exec(context.Background(), []string{"sort", "w"})
	require.NoError(t, err)

	data, err := os.ReadFile(f.file)
	require.NoError(t, err)
	assert.Equal(t, "apple\nfig\npear\n", string(data))
	assert.Contains(t, f.out.String(), "3L, 15B written")
	assert.Equal(t, []string{"sort", "w"}, app.Engine().HistoryEntries())

	rec, ok := app.State().Registers.Recorded(register.Command)
	require.True(t, ok)
	assert.Equal(t, "w", rec.Text())
}

func TestApplication_ExecStopsOnQuit(t *testing.T) {
	f := newFixture(t, "", "a\n")
	app := newApp(t, f.options(""))

	err := app.Exec(context.Background(), []string{"q", "1d"})
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, []string{"q"}, app.Engine().HistoryEntries())
}

func TestApplication_ExecReportsErrors(t *testing.T) {
	f := newFixture(t, "", "a\nb\n")
	app := newApp(t, f.options(""))

	require.NoError(t, app.Exec(context.Background(), []string{"1d", "q"}))
	assert.Contains(t, f.out.String(), "E37: No write since last change (add ! to override)")
	assert.False(t, app.State().QuitRequested())
}

func TestApplication_HistoryPersists(t *testing.T) {
	f := newFixture(t, "", "a\n")
	ctx := context.Background()

	first, err := New(ctx, f.options(""))
	require.NoError(t, err)
	require.NoError(t, first.Exec(ctx, []string{"1", "registers"}))
	require.NoError(t, first.Close())

	second := newApp(t, f.options("1\n"))
	assert.Equal(t, []string{"1", "registers"}, second.Engine().HistoryEntries())

	got, ok := second.PickHistory(ctx)
	assert.True(t, ok)
	assert.Empty(t, got, "the picker's own empty entry is newest")

	require.NoError(t, second.ClearHistory(ctx))
}

func TestApplication_Interactive(t *testing.T) {
	f := newFixture(t, "", "one\ntwo\nthree\n")
	app := newApp(t, f.options("2d\n\x1b\nhistory\n"))

	require.NoError(t, app.Interactive(context.Background()))

	assert.Equal(t, 2, app.State().Buffer.LineCount())
	assert.Equal(t, []string{"2d", "history"}, app.Engine().HistoryEntries())
	assert.Contains(t, f.out.String(), "cmd history")
}

func TestApplication_InteractiveQuit(t *testing.T) {
	f := newFixture(t, "", "one\n")
	app := newApp(t, f.options("q!\n1d\n"))

	err := app.Interactive(context.Background())
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, 1, app.State().Buffer.LineCount())
}

func TestApplication_InteractiveCancelled(t *testing.T) {
	f := newFixture(t, "", "one\n")
	app := newApp(t, f.options("1d\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, app.Interactive(ctx), context.Canceled)
}

func TestApplication_Delegation(t *testing.T) {
	f := newFixture(t, "", "foo\nbar foo\n")
	opts := f.options("")
	opts.Delegate = true
	app := newApp(t, opts)

	assert.True(t, app.gateway.HasActiveSession())
	require.NoError(t, app.Exec(context.Background(), []string{`lua ex.echo("hello from lua")`, "%s/foo/baz/g"}))

	assert.Contains(t, f.out.String(), "hello from lua")
	assert.Equal(t, "baz\nbar baz\n", app.State().Buffer.Text())
}

func TestApplication_DelegationScriptFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, `
[delegation]
enabled = true
script = "does-not-exist.lua"
`, "a\n")
	app := newApp(t, f.options(""))

	assert.False(t, app.gateway.HasActiveSession())
	require.NoError(t, app.Exec(context.Background(), []string{"lua print(1)"}))
	assert.Contains(t, f.out.String(), "E319")
}

func TestApplication_ReloadTogglesDelegation(t *testing.T) {
	f := newFixture(t, "[delegation]\nenabled = false\n", "a\n")
	app := newApp(t, f.options(""))
	require.False(t, app.gateway.HasActiveSession())

	require.NoError(t, os.WriteFile(f.config, []byte("[delegation]\nenabled = true\n[log]\nlevel = \"debug\"\n"), 0o644))
	require.NoError(t, app.config.Reload())
	assert.True(t, app.gateway.HasActiveSession())
	assert.True(t, app.Config().Delegation.Enabled)

	require.NoError(t, os.WriteFile(f.config, []byte("[delegation]\nenabled = false\n"), 0o644))
	require.NoError(t, app.config.Reload())
	assert.False(t, app.gateway.HasActiveSession())
}

func TestApplication_WatchStartsAndStops(t *testing.T) {
	f := newFixture(t, "[delegation]\nenabled = false\n", "")
	opts := f.options("")
	opts.Watch = true
	app, err := New(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, app.watchCancel)

	require.NoError(t, app.Close())
	assert.ErrorIs(t, app.Exec(context.Background(), []string{"1"}), ErrClosed)
	assert.NoError(t, app.Close())
}

func TestApplication_InvalidConfig(t *testing.T) {
	f := newFixture(t, "[history]\nbackend = \"floppy\"\n", "")
	_, err := New(context.Background(), f.options(""))

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "config", initErr.Component)
}

func TestApplication_UnreadableFile(t *testing.T) {
	f := newFixture(t, "", "")
	opts := f.options("")
	opts.File = f.dir

	_, err := New(context.Background(), opts)
	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "buffer", initErr.Component)
}
