package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/websignapp/websign-server/internal/domain"
	domainerrors "github.com/websignapp/websign-server/internal/errors"
)

// seedPlaylist creates a playlist with n text items for user_a.
func seedPlaylist(t *testing.T, env *testEnv, n int) (*domain.Playlist, []*domain.ContentItem) {
	t.Helper()
	ctx := context.Background()

	playlist, err := env.playlists.Create(ctx, "user_a", CreatePlaylistRequest{Name: "Loop"})
	require.NoError(t, err)

	items := make([]*domain.ContentItem, n)
	ids := make([]string, n)
	for i := range n {
		items[i] = createTestContent(t, env, "user_a", "item "+strings.Repeat("x", i+1))
		ids[i] = items[i].ID
	}
	if n > 0 {
		playlist, err = env.playlists.AddItems(ctx, "user_a", playlist.ID, ids)
		require.NoError(t, err)
	}
	return playlist, items
}

// itemOrder extracts content ids in position order.
func itemOrder(p *domain.Playlist) []string {
	return p.ContentIDs()
}

func TestPlaylistService_Create(t *testing.T) {
	env := newTestEnv(t)

	playlist, err := env.playlists.Create(context.Background(), "user_a", CreatePlaylistRequest{Name: "Morning"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(playlist.ID, "pls-"))
	assert.Equal(t, "Morning", playlist.Name)
	assert.NotNil(t, playlist.Items)
	assert.Empty(t, playlist.Items)

	_, err = env.playlists.Create(context.Background(), "user_a", CreatePlaylistRequest{})
	assertErrorCode(t, err, domainerrors.CodeValidation)
}

func TestPlaylistService_AddItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 2)

	require.Len(t, playlist.Items, 2)
	assert.Equal(t, 1, playlist.Items[0].Position)
	assert.Equal(t, 2, playlist.Items[1].Position)

	// Re-adding an existing item is skipped, new ones append at the end.
	extra := createTestContent(t, env, "user_a", "extra")
	updated, err := env.playlists.AddItems(ctx, "user_a", playlist.ID, []string{items[0].ID, extra.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{items[0].ID, items[1].ID, extra.ID}, itemOrder(updated))
}

func TestPlaylistService_AddItems_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, _ := seedPlaylist(t, env, 0)

	_, err := env.playlists.AddItems(ctx, "user_a", playlist.ID, nil)
	assertErrorCode(t, err, domainerrors.CodeValidation)

	_, err = env.playlists.AddItems(ctx, "user_a", playlist.ID, []string{"cnt-missing"})
	assertErrorCode(t, err, domainerrors.CodeNotFound)

	// Another user's content cannot enter the playlist.
	foreign := createTestContent(t, env, "user_b", "theirs")
	_, err = env.playlists.AddItems(ctx, "user_a", playlist.ID, []string{foreign.ID})
	assertErrorCode(t, err, domainerrors.CodeNotFound)
}

func TestPlaylistService_ReplaceItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 3)

	// Reverse the order wholesale.
	updated, err := env.playlists.ReplaceItems(ctx, "user_a", playlist.ID,
		[]string{items[2].ID, items[1].ID, items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, []string{items[2].ID, items[1].ID, items[0].ID}, itemOrder(updated))
	for i, it := range updated.Items {
		assert.Equal(t, i+1, it.Position)
	}

	// Empty replacement clears the playlist.
	updated, err = env.playlists.ReplaceItems(ctx, "user_a", playlist.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Items)
}

func TestPlaylistService_ReplaceItems_UnknownPlaylistIsNoop(t *testing.T) {
	env := newTestEnv(t)

	updated, err := env.playlists.ReplaceItems(context.Background(), "user_a", "pls-missing", []string{"cnt-x"})
	assert.NoError(t, err)
	assert.Nil(t, updated)
}

func TestPlaylistService_RemoveItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 3)

	updated, err := env.playlists.RemoveItem(ctx, "user_a", playlist.ID, items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{items[0].ID, items[2].ID}, itemOrder(updated))
	assert.Equal(t, 1, updated.Items[0].Position)
	assert.Equal(t, 2, updated.Items[1].Position)
}

func TestPlaylistService_MoveItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 3)

	// Move the last item to the front.
	updated, err := env.playlists.MoveItem(ctx, "user_a", playlist.ID, items[2].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{items[2].ID, items[0].ID, items[1].ID}, itemOrder(updated))

	// Positions past the end clamp to the last slot.
	updated, err = env.playlists.MoveItem(ctx, "user_a", playlist.ID, items[2].ID, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{items[0].ID, items[1].ID, items[2].ID}, itemOrder(updated))
}

func TestPlaylistService_MoveItem_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 2)

	_, err := env.playlists.MoveItem(ctx, "user_a", playlist.ID, items[0].ID, 0)
	assertErrorCode(t, err, domainerrors.CodeValidation)

	outsider := createTestContent(t, env, "user_a", "outsider")
	_, err = env.playlists.MoveItem(ctx, "user_a", playlist.ID, outsider.ID, 1)
	assertErrorCode(t, err, domainerrors.CodeNotFound)
	assert.Contains(t, err.Error(), "not in this playlist")
}

func TestPlaylistService_Delete_ClearsScreenAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, _ := seedPlaylist(t, env, 1)
	screen, err := env.screens.Create(ctx, "user_a", CreateScreenRequest{Name: "Lobby"})
	require.NoError(t, err)
	_, err = env.screens.AssignPlaylist(ctx, "user_a", screen.ID, playlist.ID)
	require.NoError(t, err)

	require.NoError(t, env.playlists.Delete(ctx, "user_a", playlist.ID))

	_, err = env.playlists.Get(ctx, "user_a", playlist.ID)
	assertErrorCode(t, err, domainerrors.CodeNotFound)

	// The screen survives with its assignment cleared.
	got, err := env.screens.Get(ctx, "user_a", screen.ID)
	require.NoError(t, err)
	assert.False(t, got.HasPlaylist())
}

func TestPlaylistService_OwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	playlist, items := seedPlaylist(t, env, 1)

	_, err := env.playlists.Get(ctx, "user_b", playlist.ID)
	assertErrorCode(t, err, domainerrors.CodeNotFound)

	_, err = env.playlists.AddItems(ctx, "user_b", playlist.ID, []string{items[0].ID})
	assertErrorCode(t, err, domainerrors.CodeNotFound)

	err = env.playlists.Delete(ctx, "user_b", playlist.ID)
	assertErrorCode(t, err, domainerrors.CodeNotFound)
}
