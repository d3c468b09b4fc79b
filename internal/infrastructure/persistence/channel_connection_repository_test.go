package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

func setupConnectionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ConnectionModel{}))
	return db
}

func saveTestConnection(t *testing.T, repo *GormConnectionRepository, sellerID uuid.UUID, channelType channel.Type) *channel.Connection {
	t.Helper()
	conn, err := channel.NewConnection(sellerID, channelType, "sealed-credentials")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), conn))
	return conn
}

func TestGormConnectionRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConnectionRepository(setupConnectionTestDB(t))

	t.Run("round-trips a connection", func(t *testing.T) {
		sellerID := uuid.New()
		conn := saveTestConnection(t, repo, sellerID, channel.TypeShopify)

		found, err := repo.FindByID(ctx, conn.ID)
		require.NoError(t, err)
		assert.Equal(t, conn.ID, found.ID)
		assert.Equal(t, channel.TypeShopify, found.ChannelType)
		assert.Equal(t, "sealed-credentials", found.EncryptedCredentials)
		assert.True(t, found.IsActive)
	})

	t.Run("returns ErrConnectionNotFound for unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, channel.ErrConnectionNotFound)
	})
}

func TestGormConnectionRepository_FindActive(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConnectionRepository(setupConnectionTestDB(t))
	sellerID := uuid.New()

	conn := saveTestConnection(t, repo, sellerID, channel.TypeMock)

	t.Run("finds the active connection", func(t *testing.T) {
		found, err := repo.FindActive(ctx, sellerID, channel.TypeMock)
		require.NoError(t, err)
		assert.Equal(t, conn.ID, found.ID)
	})

	t.Run("ignores disconnected connections", func(t *testing.T) {
		conn.Disconnect()
		require.NoError(t, repo.Save(ctx, conn))

		_, err := repo.FindActive(ctx, sellerID, channel.TypeMock)
		assert.ErrorIs(t, err, channel.ErrConnectionNotFound)
	})

	t.Run("scopes to the seller", func(t *testing.T) {
		saveTestConnection(t, repo, uuid.New(), channel.TypeEbay)

		_, err := repo.FindActive(ctx, sellerID, channel.TypeEbay)
		assert.ErrorIs(t, err, channel.ErrConnectionNotFound)
	})
}

func TestGormConnectionRepository_ListBySeller(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConnectionRepository(setupConnectionTestDB(t))
	sellerID := uuid.New()

	saveTestConnection(t, repo, sellerID, channel.TypeShopify)
	wooConn := saveTestConnection(t, repo, sellerID, channel.TypeWooCommerce)
	wooConn.Disconnect()
	require.NoError(t, repo.Save(ctx, wooConn))
	saveTestConnection(t, repo, uuid.New(), channel.TypeShopify)

	t.Run("lists all connections for the seller", func(t *testing.T) {
		listed, err := repo.ListBySeller(ctx, sellerID, channel.ConnectionFilter{})
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("filters to active connections", func(t *testing.T) {
		listed, err := repo.ListBySeller(ctx, sellerID, channel.ConnectionFilter{ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, channel.TypeShopify, listed[0].ChannelType)
	})

	t.Run("filters by channel type", func(t *testing.T) {
		wooType := channel.TypeWooCommerce
		listed, err := repo.ListBySeller(ctx, sellerID, channel.ConnectionFilter{ChannelType: &wooType})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, wooConn.ID, listed[0].ID)
	})
}

func TestGormConnectionRepository_ListActiveByChannel(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConnectionRepository(setupConnectionTestDB(t))

	first := saveTestConnection(t, repo, uuid.New(), channel.TypeShopify)
	second := saveTestConnection(t, repo, uuid.New(), channel.TypeShopify)
	saveTestConnection(t, repo, uuid.New(), channel.TypeEbay)

	disconnected := saveTestConnection(t, repo, uuid.New(), channel.TypeShopify)
	disconnected.Disconnect()
	require.NoError(t, repo.Save(ctx, disconnected))

	listed, err := repo.ListActiveByChannel(ctx, channel.TypeShopify)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	ids := []uuid.UUID{listed[0].ID, listed[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestGormConnectionRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewGormConnectionRepository(setupConnectionTestDB(t))

	t.Run("updates the status", func(t *testing.T) {
		conn := saveTestConnection(t, repo, uuid.New(), channel.TypeMock)

		require.NoError(t, repo.UpdateStatus(ctx, conn.ID, channel.ConnectionStatusError))

		found, err := repo.FindByID(ctx, conn.ID)
		require.NoError(t, err)
		assert.Equal(t, channel.ConnectionStatusError, found.Status)
	})

	t.Run("returns ErrConnectionNotFound for unknown ID", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, uuid.New(), channel.ConnectionStatusError)
		assert.ErrorIs(t, err, channel.ErrConnectionNotFound)
	})
}
