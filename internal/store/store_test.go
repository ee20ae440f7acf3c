package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.OAuthToken{},
		&models.Course{},
		&models.Assignment{},
		&models.Task{},
		&models.PomodoroSession{},
		&models.MoodEntry{},
		&models.UserSettings{},
		&models.ReminderRule{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.NewString(),
		Username: "tester-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: "hashed",
		Active:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func googleToken(userID, accessToken string, expiresAt *time.Time) *models.OAuthToken {
	refresh := "rt-1"
	return &models.OAuthToken{
		UserID:       userID,
		Provider:     oauth.KeyGoogle,
		AccessToken:  accessToken,
		RefreshToken: &refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}
}

func TestUpsertTokenInsertsThenOverwrites(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, st.UpsertToken(ctx, googleToken(user.ID, "at-first", &expires)))

	// A relink replaces the row, it never duplicates it.
	require.NoError(t, st.UpsertToken(ctx, googleToken(user.ID, "at-second", &expires)))

	var count int64
	require.NoError(t, db.Model(&models.OAuthToken{}).
		Where("user_id = ? AND provider = ?", user.ID, oauth.KeyGoogle).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	token, err := st.Token(ctx, user.ID, oauth.KeyGoogle)
	require.NoError(t, err)
	assert.Equal(t, "at-second", token.AccessToken)
}

func TestTokensIsolatedPerProvider(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, st.UpsertToken(ctx, googleToken(user.ID, "at-google", &expires)))

	canvasToken := googleToken(user.ID, "at-canvas", &expires)
	canvasToken.Provider = oauth.KeyCanvas
	require.NoError(t, st.UpsertToken(ctx, canvasToken))

	google, err := st.Token(ctx, user.ID, oauth.KeyGoogle)
	require.NoError(t, err)
	canvas, err := st.Token(ctx, user.ID, oauth.KeyCanvas)
	require.NoError(t, err)

	assert.Equal(t, "at-google", google.AccessToken)
	assert.Equal(t, "at-canvas", canvas.AccessToken)

	// Disconnecting one provider leaves the other linked.
	require.NoError(t, st.Disconnect(ctx, user.ID, oauth.KeyCanvas))
	_, err = st.Token(ctx, user.ID, oauth.KeyCanvas)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = st.Token(ctx, user.ID, oauth.KeyGoogle)
	assert.NoError(t, err)
}

func TestTokenMissingReportsNotConnected(t *testing.T) {
	db := testDB(t)
	st := New(db)
	user := createUser(t, db)

	_, err := st.Token(context.Background(), user.ID, oauth.KeyGoogle)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTokenExpiredWithoutRefresh(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	expired := time.Now().Add(-time.Hour)
	token := googleToken(user.ID, "at-stale", &expired)
	token.RefreshToken = nil
	require.NoError(t, st.UpsertToken(ctx, token))

	// Expired and unrefreshable means not connected, whatever the flag says.
	_, err := st.Token(ctx, user.ID, oauth.KeyGoogle)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestTokenExpiredWithRefreshIsReturned(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, st.UpsertToken(ctx, googleToken(user.ID, "at-stale", &expired)))

	token, err := st.Token(ctx, user.ID, oauth.KeyGoogle)
	require.NoError(t, err)
	assert.True(t, token.Expired(time.Now()))
	require.NotNil(t, token.RefreshToken)
}

func TestMarkConnectedSetsFlags(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	require.NoError(t, st.MarkConnected(ctx, user.ID, oauth.KeyGoogle, ""))
	require.NoError(t, st.MarkConnected(ctx, user.ID, oauth.KeyCanvas, "https://canvas.school.edu"))

	flags, err := st.ConnectionFlags(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, flags.GoogleConnected)
	assert.True(t, flags.CanvasConnected)
	require.NotNil(t, flags.CanvasBaseURL)
	assert.Equal(t, "https://canvas.school.edu", *flags.CanvasBaseURL)
}

func TestMarkConnectedUnknownUser(t *testing.T) {
	db := testDB(t)
	st := New(db)

	err := st.MarkConnected(context.Background(), uuid.NewString(), oauth.KeyGoogle, "")
	assert.Error(t, err)
}

func TestMarkConnectedUnknownProvider(t *testing.T) {
	db := testDB(t)
	st := New(db)
	user := createUser(t, db)

	err := st.MarkConnected(context.Background(), user.ID, "github", "")
	assert.ErrorIs(t, err, oauth.ErrUnknownProvider)
}

func TestDisconnectClearsFlagAndToken(t *testing.T) {
	db := testDB(t)
	st := New(db)
	ctx := context.Background()
	user := createUser(t, db)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, st.UpsertToken(ctx, googleToken(user.ID, "at-1", &expires)))
	require.NoError(t, st.MarkConnected(ctx, user.ID, oauth.KeyGoogle, ""))

	require.NoError(t, st.Disconnect(ctx, user.ID, oauth.KeyGoogle))

	flags, err := st.ConnectionFlags(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, flags.GoogleConnected)

	_, err = st.Token(ctx, user.ID, oauth.KeyGoogle)
	assert.ErrorIs(t, err, ErrNotConnected)
}
