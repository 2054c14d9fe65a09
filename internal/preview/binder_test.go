package preview

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/core/coretest"
)

func TestBinderIgnoresLateResolution(t *testing.T) {
	media := coretest.NewMedia(nil)
	media.HoldLoads = true
	b := NewBinder(media, nil)

	results := make(chan LoadResult, 2)
	notify := func(res LoadResult) { results <- res }

	first := b.Bind("a.mp3", notify)
	firstLoad, err := media.NextLoad(waitTimeout)
	require.NoError(t, err)

	second := b.Bind("b.mp3", notify)
	secondLoad, err := media.NextLoad(waitTimeout)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	firstLoad.Resolve(100*time.Second, nil)
	res := <-results
	assert.Equal(t, first, res.Gen)
	src, ok := b.Resolve(res)
	assert.False(t, ok)
	assert.Equal(t, core.MetadataPending, src.ReadyState)
	assert.Equal(t, "b.mp3", src.Locator)

	secondLoad.Resolve(200*time.Second, nil)
	src, ok = b.Resolve(<-results)
	require.True(t, ok)
	assert.Equal(t, core.Ready, src.ReadyState)
	assert.Equal(t, 200*time.Second, src.Duration)

	_, ok = b.Resolve(LoadResult{Gen: second, Duration: time.Second})
	assert.False(t, ok, "a generation resolves once")
}

func TestBinderLoadError(t *testing.T) {
	media := coretest.NewMedia(nil)
	b := NewBinder(media, nil)

	results := make(chan LoadResult, 1)
	b.Bind("missing.mp3", func(res LoadResult) { results <- res })

	res := <-results
	require.True(t, errors.Is(res.Err, coretest.ErrUnknownLocator))
	src, ok := b.Resolve(res)
	require.True(t, ok)
	assert.Equal(t, core.LoadError, src.ReadyState)
}

func TestBinderEmptyLocatorAndReset(t *testing.T) {
	media := coretest.NewMedia(map[string]time.Duration{"a.mp3": time.Minute})
	b := NewBinder(media, nil)

	b.Bind("", func(LoadResult) { t.Error("no load expected") })
	assert.Equal(t, core.Unloaded, b.Source().ReadyState)

	b.Bind("a.mp3", func(LoadResult) {})
	assert.Equal(t, core.MetadataPending, b.Source().ReadyState)
	pauses := media.Pauses()

	b.Reset()
	assert.Equal(t, core.AudioSource{}, b.Source())
	assert.Equal(t, pauses+1, media.Pauses())
}
