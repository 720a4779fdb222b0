package mock_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/gemchat"
	"github.com/fwojciec/gemchat/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_Stream(t *testing.T) {
	t.Parallel()
	t.Run("delegates to StreamFn", func(t *testing.T) {
		t.Parallel()
		var s mock.Stream
		b := mock.Backend{
			StreamFn: func(context.Context, gemchat.Request) (gemchat.Stream, error) {
				return &s, nil
			},
		}
		got, err := b.Stream(context.Background(), gemchat.Request{})
		require.NoError(t, err)
		assert.Equal(t, &s, got)
	})

	t.Run("panics when StreamFn not set", func(t *testing.T) {
		t.Parallel()
		b := mock.Backend{}
		assert.Panics(t, func() {
			_, _ = b.Stream(context.Background(), gemchat.Request{})
		})
	})
}

func TestStream_CloseNilSafe(t *testing.T) {
	t.Parallel()
	s := mock.Stream{}
	assert.NoError(t, s.Close())
}

func TestChunkStream(t *testing.T) {
	t.Parallel()
	t.Run("ends with EOF", func(t *testing.T) {
		t.Parallel()
		s := mock.ChunkStream(nil, "a", "b")
		c, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", c.Text)
		c, err = s.Next()
		require.NoError(t, err)
		assert.Equal(t, "b", c.Text)
		_, err = s.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("ends with error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("boom")
		s := mock.ChunkStream(wantErr)
		_, err := s.Next()
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestNotifier_Messages(t *testing.T) {
	t.Parallel()
	var n mock.Notifier
	n.Notify("one")
	n.Notify("two")
	assert.Equal(t, []string{"one", "two"}, n.Messages())
}
