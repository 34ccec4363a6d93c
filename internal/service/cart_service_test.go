package service

import (
	"context"
	"testing"

	"fulfillment/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSnapshotsProductAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.carts.AddItem(ctx, testEmail, 1, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Keyboard", view.Items[0].Title)
	assert.Equal(t, int64(9999), view.Items[0].UnitPriceCents)
	assert.Equal(t, int64(19998), view.TotalCents)

	view, err = f.carts.AddItem(ctx, testEmail, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(25998), view.TotalCents)

	view, err = f.carts.UpdateItem(ctx, testEmail, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15999), view.TotalCents)

	view, err = f.carts.UpdateItem(ctx, testEmail, 1, 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(2), view.Items[0].ProductID)

	view, err = f.carts.RemoveItem(ctx, testEmail, 2)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalCents)
}

func TestCartRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, testEmail, 1, 0)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = f.carts.AddItem(ctx, testEmail, 404, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.carts.UpdateItem(ctx, testEmail, 1, 3)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.carts.UpdateItem(ctx, testEmail, 1, -1)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestCartsAreKeptPerCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t)

	other, err := f.carts.GetCart(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	require.NoError(t, f.carts.Clear(ctx, testEmail))
	mine, err := f.carts.GetCart(ctx, testEmail)
	require.NoError(t, err)
	assert.Empty(t, mine.Items)
}
