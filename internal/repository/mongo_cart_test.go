package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"storefront/internal/domain"
)

const testDB = "storefront_test"

func updated(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func noUser() bson.D {
	return mtest.CreateCursorResponse(0, testDB+"."+usersCollection, mtest.FirstBatch)
}

func someUser(oid primitive.ObjectID) bson.D {
	return mtest.CreateCursorResponse(0, testDB+"."+usersCollection, mtest.FirstBatch, bson.D{{Key: "_id", Value: oid}})
}

// sentUpdate returns the update document of the next recorded update command.
func sentUpdate(mt *mtest.T) (query, update bson.Raw) {
	mt.Helper()
	ev := mt.GetStartedEvent()
	require.NotNil(mt, ev)
	require.Equal(mt, "update", ev.CommandName)
	query = ev.Command.Lookup("updates", "0", "q").Document()
	update = ev.Command.Lookup("updates", "0", "u").Document()
	return query, update
}

func TestMongoUsers_Cart(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("increment uses $inc on the field and the version", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		oid := primitive.NewObjectID()
		mt.AddMockResponses(updated(1))

		require.NoError(mt, users.IncrementCartItem(ctx, oid.Hex(), "p1", "M", 1))

		q, u := sentUpdate(mt)
		assert.Equal(mt, oid, q.Lookup("_id").ObjectID())
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartData.p1.M").AsInt64())
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartVersion").AsInt64())
		limit := q.Lookup("cartData.p1.M", "$not", "$gt").AsInt64()
		assert.Equal(mt, int64(domain.MaxQuantity-1), limit)
	})

	mt.Run("increment on a missing user", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(0), noUser())

		err := users.IncrementCartItem(ctx, primitive.NewObjectID().Hex(), "p1", "M", 1)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("increment past the quantity limit", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		oid := primitive.NewObjectID()
		mt.AddMockResponses(updated(0), someUser(oid))

		err := users.IncrementCartItem(ctx, oid.Hex(), "p1", "M", 1)
		assert.ErrorIs(mt, err, domain.ErrQuantityLimit)
	})

	mt.Run("set zero unsets the size then prunes the empty item", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		oid := primitive.NewObjectID()
		mt.AddMockResponses(updated(1), updated(1))

		require.NoError(mt, users.SetCartItem(ctx, oid.Hex(), "p1", "M", 0))

		_, u := sentUpdate(mt)
		_, err := u.LookupErr("$unset", "cartData.p1.M")
		assert.NoError(mt, err, "size must be unset")
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartVersion").AsInt64())

		q, u := sentUpdate(mt)
		empty, err := q.LookupErr("cartData.p1")
		require.NoError(mt, err, "prune must only match an empty item")
		elems, err := empty.Document().Elements()
		require.NoError(mt, err)
		assert.Empty(mt, elems)
		_, err = u.LookupErr("$unset", "cartData.p1")
		assert.NoError(mt, err)
	})

	mt.Run("set positive quantity", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(1))

		require.NoError(mt, users.SetCartItem(ctx, primitive.NewObjectID().Hex(), "p1", "L", 3))

		_, u := sentUpdate(mt)
		assert.Equal(mt, int64(3), u.Lookup("$set", "cartData.p1.L").AsInt64())
	})

	mt.Run("set above the quantity limit sends nothing", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		err := users.SetCartItem(ctx, primitive.NewObjectID().Hex(), "p1", "L", domain.MaxQuantity+1)
		assert.ErrorIs(mt, err, domain.ErrQuantityLimit)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("set on a missing user", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(0))

		err := users.SetCartItem(ctx, primitive.NewObjectID().Hex(), "p1", "L", 2)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("clear matches on the read version", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(1))

		require.NoError(mt, users.ClearCartIfVersion(ctx, primitive.NewObjectID().Hex(), 7))

		q, u := sentUpdate(mt)
		assert.Equal(mt, int64(7), q.Lookup("cartVersion").AsInt64())
		elems, err := u.Lookup("$set", "cartData").Document().Elements()
		require.NoError(mt, err)
		assert.Empty(mt, elems)
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartVersion").AsInt64())
	})

	mt.Run("clear after a concurrent edit", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(0))

		err := users.ClearCartIfVersion(ctx, primitive.NewObjectID().Hex(), 7)
		assert.ErrorIs(mt, err, ErrVersionConflict)
	})

	mt.Run("merge sums lines into one update", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		mt.AddMockResponses(updated(1))

		require.NoError(mt, users.MergeCart(ctx, primitive.NewObjectID().Hex(), []domain.CartLine{
			{ProductID: "p1", Size: "M", Quantity: 2},
			{ProductID: "p2", Size: "L", Quantity: 1},
			{ProductID: "p1", Size: "M", Quantity: 1},
		}))

		_, u := sentUpdate(mt)
		assert.Equal(mt, int64(3), u.Lookup("$inc", "cartData.p1.M").AsInt64())
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartData.p2.L").AsInt64())
		assert.Equal(mt, int64(1), u.Lookup("$inc", "cartVersion").AsInt64())
	})

	mt.Run("invalid user id", func(mt *mtest.T) {
		users := NewMongoStore(mt.Client, testDB).Users()
		assert.ErrorIs(mt, users.IncrementCartItem(ctx, "not-an-id", "p1", "M", 1), ErrNotFound)
		assert.ErrorIs(mt, users.ClearCartIfVersion(ctx, "not-an-id", 0), ErrNotFound)
	})
}

func TestMongoOrders_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("returns the updated order", func(mt *mtest.T) {
		orders := NewMongoStore(mt.Client, testDB).Orders()
		doc, err := orderToDoc(domain.Order{
			UserID: "u1",
			Amount: decimal.NewFromInt(65),
			Status: domain.OrderStatusShipped,
			Items:  []domain.OrderLine{{ProductID: "p1", Name: "Tee", Price: decimal.NewFromInt(20), Size: "M", Quantity: 2}},
		})
		require.NoError(mt, err)
		doc.ID = primitive.NewObjectID()
		raw, err := bson.Marshal(doc)
		require.NoError(mt, err)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.Raw(raw)}))

		o, err := orders.UpdateStatus(ctx, doc.ID.Hex(), domain.OrderStatusShipped)
		require.NoError(mt, err)
		assert.Equal(mt, doc.ID.Hex(), o.ID)
		assert.Equal(mt, domain.OrderStatusShipped, o.Status)
		assert.True(mt, decimal.NewFromInt(65).Equal(o.Amount))

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "findAndModify", ev.CommandName)
		assert.Equal(mt, "shipped", ev.Command.Lookup("update", "$set", "status").StringValue())
	})

	mt.Run("unknown order", func(mt *mtest.T) {
		orders := NewMongoStore(mt.Client, testDB).Orders()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := orders.UpdateStatus(ctx, primitive.NewObjectID().Hex(), domain.OrderStatusShipped)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		orders := NewMongoStore(mt.Client, testDB).Orders()
		_, err := orders.UpdateStatus(ctx, "nope", domain.OrderStatusShipped)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
