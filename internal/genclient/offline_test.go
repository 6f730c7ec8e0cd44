package genclient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfflineProviderProducesDataURI(t *testing.T) {
	p := NewOfflineProvider()

	src, err := p.GenerateImage(context.Background(), Request{Prompt: "a red fox", Model: "m"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(src, "data:image/png;base64,"))

	// deterministic for the same prompt+model
	again, err := p.GenerateImage(context.Background(), Request{Prompt: "a red fox", Model: "m"})
	require.NoError(t, err)
	require.Equal(t, src, again)

	other, err := p.GenerateImage(context.Background(), Request{Prompt: "a blue fox", Model: "m"})
	require.NoError(t, err)
	require.NotEqual(t, src, other)
}

func TestOfflineProviderMetadata(t *testing.T) {
	p := NewOfflineProvider()

	md, err := p.GenerateMetadata(context.Background(), "epic mountain sunrise timelapse")
	require.NoError(t, err)
	require.Equal(t, "epic mountain sunrise timelapse", md.Title)
	require.Contains(t, md.Tags, "mountain")
	require.LessOrEqual(t, len(md.Tags), 5)
}

func TestDecodeDataURI(t *testing.T) {
	data, mime, err := decodeDataURI("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mime)
	require.Equal(t, []byte("hello"), data)

	_, _, err = decodeDataURI("not-a-uri")
	require.Error(t, err)
}
