package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/model"
)

type call struct {
	name string
	args []string
}

func fakeDesktop(goos string, installed bool) (*Desktop, *[]call) {
	var calls []call
	d := &Desktop{
		AppName: "taskboard",
		goos:    goos,
		lookPath: func(name string) (string, error) {
			if installed {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		run: func(_ context.Context, name string, args ...string) error {
			calls = append(calls, call{name: name, args: args})
			return nil
		},
	}
	return d, &calls
}

func TestDesktopLinux(t *testing.T) {
	d, calls := fakeDesktop("linux", true)
	assert.True(t, d.Supported())

	n := model.NewCommentNotification(model.Comment{ID: "c1", Author: "Ana", Content: "hi"})
	require.NoError(t, d.Notify(context.Background(), n))
	require.Len(t, *calls, 1)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"-a", "taskboard", "New comment", "Ana: hi"}, (*calls)[0].args)
}

func TestDesktopDarwinEscapes(t *testing.T) {
	d, calls := fakeDesktop("darwin", true)

	n := model.Notification{Title: "New comment", Body: `Ana: say "hi" \o/`}
	require.NoError(t, d.Notify(context.Background(), n))
	require.Len(t, *calls, 1)
	assert.Equal(t, "osascript", (*calls)[0].name)
	assert.Equal(t,
		`display notification "Ana: say \"hi\" \\o/" with title "New comment"`,
		(*calls)[0].args[1])
}

func TestDesktopUnsupported(t *testing.T) {
	d, _ := fakeDesktop("windows", true)
	assert.False(t, d.Supported())
	assert.Error(t, d.Notify(context.Background(), model.Notification{}))

	missing, _ := fakeDesktop("linux", false)
	assert.False(t, missing.Supported())
}

func TestPermissions(t *testing.T) {
	mem := localstore.NewMemory()
	p := NewPermissions(mem)

	perm, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, PermissionDefault, perm)

	supported, _ := fakeDesktop("linux", true)
	perm, err = p.Request(supported)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, perm)

	perm, err = p.Load()
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, perm)

	unsupported, _ := fakeDesktop("plan9", true)
	perm, err = p.Request(unsupported)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, perm)
}

func TestParsePermission(t *testing.T) {
	assert.Equal(t, PermissionGranted, ParsePermission("granted\n"))
	assert.Equal(t, PermissionDenied, ParsePermission("denied"))
	assert.Equal(t, PermissionDefault, ParsePermission("maybe"))
}

type chanNotifier struct {
	ch  chan model.Notification
	err error
}

func (c *chanNotifier) Supported() bool { return true }

func (c *chanNotifier) Notify(_ context.Context, n model.Notification) error {
	c.ch <- n
	return c.err
}

func TestAsyncDeliversInBackground(t *testing.T) {
	inner := &chanNotifier{ch: make(chan model.Notification, 1), err: errors.New("ignored")}
	a := NewAsync(inner, log.New(io.Discard))
	assert.True(t, a.Supported())

	require.NoError(t, a.Notify(context.Background(), model.Notification{Body: "Ana: hi"}))
	select {
	case n := <-inner.ch:
		assert.Equal(t, "Ana: hi", n.Body)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}
