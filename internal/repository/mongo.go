package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/domain"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	ordersCollection   = "orders"
)

// MongoStore keeps users (with their embedded cart), products and orders in
// a MongoDB database.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *mongo.Collection
	products *mongo.Collection
	orders   *mongo.Collection
	now      func() time.Time
}

// ConnectMongo dials uri, pings the primary and ensures indexes.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := NewMongoStore(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		db:       db,
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		orders:   db.Collection(ordersCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

// Products returns the product repository view of the store.
func (s *MongoStore) Products() *MongoProducts { return &MongoProducts{s} }

// Orders returns the order repository view of the store.
func (s *MongoStore) Orders() *MongoOrders { return &MongoOrders{s} }

// Users returns the user and cart repository view of the store.
func (s *MongoStore) Users() *MongoUsers { return &MongoUsers{s} }

// Tx returns a transaction manager; with transactions disabled fn runs
// directly on the caller context.
func (s *MongoStore) Tx(transactions bool) *MongoTx {
	return &MongoTx{client: s.client, enabled: transactions}
}

type userDoc struct {
	ID          primitive.ObjectID        `bson:"_id,omitempty"`
	Name        string                    `bson:"name"`
	Email       string                    `bson:"email"`
	Password    string                    `bson:"password"`
	CartData    map[string]map[string]int `bson:"cartData"`
	CartVersion int64                     `bson:"cartVersion"`
	CreatedAt   time.Time                 `bson:"createdAt"`
}

type imageDoc struct {
	URL      string `bson:"url"`
	PublicID string `bson:"public_id"`
}

type productDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	SubCategory string               `bson:"subCategory"`
	Sizes       []string             `bson:"sizes"`
	Images      []imageDoc           `bson:"image"`
	BestSeller  bool                 `bson:"bestSeller"`
	Date        time.Time            `bson:"date"`
}

type orderLineDoc struct {
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Image     string               `bson:"image"`
	Size      string               `bson:"size"`
	Quantity  int                  `bson:"quantity"`
}

type addressDoc struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Email     string `bson:"email"`
	Street    string `bson:"street"`
	City      string `bson:"city"`
	State     string `bson:"state"`
	Zipcode   string `bson:"zipcode"`
	Country   string `bson:"country"`
	Phone     string `bson:"phone"`
}

type orderDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	UserID        string               `bson:"userId"`
	Items         []orderLineDoc       `bson:"items"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Address       addressDoc           `bson:"address"`
	PaymentMethod string               `bson:"paymentMethod"`
	Payment       bool                 `bson:"payment"`
	Status        string               `bson:"status"`
	Date          time.Time            `bson:"date"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// cartFieldPath builds the dotted path of a cart entry. Keys must be usable
// as field names.
func cartFieldPath(productID, size string) (string, error) {
	for _, k := range []string{productID, size} {
		if k == "" || strings.Contains(k, ".") || strings.HasPrefix(k, "$") {
			return "", fmt.Errorf("invalid cart key %q", k)
		}
	}
	return "cartData." + productID + "." + size, nil
}

func productToDoc(p domain.Product) (productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDoc{}, fmt.Errorf("product price: %w", err)
	}
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		BestSeller:  p.BestSeller,
		Date:        p.CreatedAt,
	}
	for _, img := range p.Images {
		doc.Images = append(doc.Images, imageDoc{URL: img.URL, PublicID: img.Handle})
	}
	if doc.Sizes == nil {
		doc.Sizes = []string{}
	}
	if doc.Images == nil {
		doc.Images = []imageDoc{}
	}
	return doc, nil
}

func productFromDoc(doc productDoc) (domain.Product, error) {
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s price: %w", doc.ID.Hex(), err)
	}
	p := domain.Product{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Description: doc.Description,
		Price:       price,
		Category:    doc.Category,
		SubCategory: doc.SubCategory,
		Sizes:       doc.Sizes,
		BestSeller:  doc.BestSeller,
		CreatedAt:   doc.Date,
	}
	for _, img := range doc.Images {
		p.Images = append(p.Images, domain.ProductImage{URL: img.URL, Handle: img.PublicID})
	}
	return p, nil
}

func orderToDoc(o domain.Order) (orderDoc, error) {
	amount, err := toDecimal128(o.Amount)
	if err != nil {
		return orderDoc{}, fmt.Errorf("order amount: %w", err)
	}
	doc := orderDoc{
		UserID:        o.UserID,
		Amount:        amount,
		Address:       addressDoc(o.Address),
		PaymentMethod: string(o.PaymentMethod),
		Payment:       o.Paid,
		Status:        string(o.Status),
		Date:          o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Items:         make([]orderLineDoc, 0, len(o.Items)),
	}
	for _, l := range o.Items {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return orderDoc{}, fmt.Errorf("order line price: %w", err)
		}
		doc.Items = append(doc.Items, orderLineDoc{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Image:     l.Image,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}
	return doc, nil
}

func orderFromDoc(doc orderDoc) (domain.Order, error) {
	amount, err := fromDecimal128(doc.Amount)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s amount: %w", doc.ID.Hex(), err)
	}
	o := domain.Order{
		ID:            doc.ID.Hex(),
		UserID:        doc.UserID,
		Amount:        amount,
		Address:       domain.Address(doc.Address),
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		Paid:          doc.Payment,
		Status:        domain.OrderStatus(doc.Status),
		CreatedAt:     doc.Date,
		UpdatedAt:     doc.UpdatedAt,
		Items:         make([]domain.OrderLine, 0, len(doc.Items)),
	}
	for _, l := range doc.Items {
		price, err := fromDecimal128(l.Price)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s line price: %w", doc.ID.Hex(), err)
		}
		o.Items = append(o.Items, domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Image:     l.Image,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}
	return o, nil
}

// MongoProducts implements ProductRepository.
type MongoProducts struct{ s *MongoStore }

var _ ProductRepository = (*MongoProducts)(nil)

func (mp *MongoProducts) Create(ctx context.Context, p *domain.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = mp.s.now()
	}
	doc, err := productToDoc(*p)
	if err != nil {
		return err
	}
	res, err := mp.s.products.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (mp *MongoProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := mp.s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	p, err := productFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (mp *MongoProducts) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := mp.s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mp *MongoProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	filter, err := productFilterDoc(f)
	if err != nil {
		return nil, err
	}
	cur, err := mp.s.products.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p, err := productFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func productFilterDoc(f ProductFilter) (bson.M, error) {
	filter := bson.M{}
	if f.NameSubstring != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameSubstring), Options: "i"}
	}
	if f.Category != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.SubCategory != "" {
		filter["subCategory"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.SubCategory) + "$", Options: "i"}
	}
	if f.BestSellerOnly {
		filter["bestSeller"] = true
	}
	price := bson.M{}
	if f.MinPrice != nil {
		v, err := toDecimal128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if f.MaxPrice != nil {
		v, err := toDecimal128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter, nil
}

// MongoUsers implements UserRepository and CartRepository. The cart is the
// cartData field of the user document, versioned by cartVersion.
type MongoUsers struct{ s *MongoStore }

var (
	_ UserRepository = (*MongoUsers)(nil)
	_ CartRepository = (*MongoUsers)(nil)
)

func (mu *MongoUsers) CreateUser(ctx context.Context, u *domain.User) error {
	u.CreatedAt = mu.s.now()
	doc := userDoc{
		Name:      u.Name,
		Email:     strings.ToLower(u.Email),
		Password:  u.PasswordHash,
		CartData:  map[string]map[string]int{},
		CreatedAt: u.CreatedAt,
	}
	res, err := mu.s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (mu *MongoUsers) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return mu.findUser(ctx, bson.M{"_id": oid})
}

func (mu *MongoUsers) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return mu.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (mu *MongoUsers) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"cartData": 0})
	if err := mu.s.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &domain.User{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (mu *MongoUsers) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	oid, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"cartData": 1, "cartVersion": 1})
	if err := mu.s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return domain.CartFromMap(doc.CartVersion, doc.CartData), nil
}

func (mu *MongoUsers) IncrementCartItem(ctx context.Context, userID, productID, size string, delta int) error {
	path, err := cartFieldPath(productID, size)
	if err != nil {
		return err
	}
	return mu.incCart(ctx, userID, map[string]int{path: delta})
}

func (mu *MongoUsers) SetCartItem(ctx context.Context, userID, productID, size string, quantity int) error {
	path, err := cartFieldPath(productID, size)
	if err != nil {
		return err
	}
	if quantity > domain.MaxQuantity {
		return domain.ErrQuantityLimit
	}
	if quantity > 0 {
		return mu.update(ctx, userID, bson.M{
			"$set": bson.M{path: quantity},
			"$inc": bson.M{"cartVersion": 1},
		})
	}
	if err := mu.update(ctx, userID, bson.M{
		"$unset": bson.M{path: ""},
		"$inc":   bson.M{"cartVersion": 1},
	}); err != nil {
		return err
	}
	// drop the item once its last size is gone
	oid, _ := parseObjectID(userID)
	item := "cartData." + productID
	_, err = mu.s.users.UpdateOne(ctx,
		bson.M{"_id": oid, item: bson.M{}},
		bson.M{"$unset": bson.M{item: ""}},
	)
	if err != nil {
		return fmt.Errorf("prune cart item: %w", err)
	}
	return nil
}

func (mu *MongoUsers) ClearCartIfVersion(ctx context.Context, userID string, version int64) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	res, err := mu.s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "cartVersion": version},
		bson.M{"$set": bson.M{"cartData": bson.M{}}, "$inc": bson.M{"cartVersion": 1}},
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (mu *MongoUsers) MergeCart(ctx context.Context, userID string, lines []domain.CartLine) error {
	inc := make(map[string]int, len(lines))
	for _, l := range lines {
		path, err := cartFieldPath(l.ProductID, l.Size)
		if err != nil {
			return err
		}
		inc[path] += l.Quantity
	}
	return mu.incCart(ctx, userID, inc)
}

// incCart applies the per-field increments in one update. Fields that would
// pass domain.MaxQuantity make the filter miss, so nothing is written.
func (mu *MongoUsers) incCart(ctx context.Context, userID string, inc map[string]int) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid}
	fields := bson.M{"cartVersion": 1}
	for path, delta := range inc {
		if delta > domain.MaxQuantity {
			return domain.ErrQuantityLimit
		}
		if delta > 0 {
			filter[path] = bson.M{"$not": bson.M{"$gt": domain.MaxQuantity - delta}}
		}
		fields[path] = delta
	}
	res, err := mu.s.users.UpdateOne(ctx, filter, bson.M{"$inc": fields})
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if res.MatchedCount == 0 {
		if err := mu.exists(ctx, oid); err != nil {
			return err
		}
		return domain.ErrQuantityLimit
	}
	return nil
}

func (mu *MongoUsers) exists(ctx context.Context, oid primitive.ObjectID) error {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := mu.s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	return nil
}

func (mu *MongoUsers) update(ctx context.Context, userID string, update bson.M) error {
	oid, err := parseObjectID(userID)
	if err != nil {
		return err
	}
	res, err := mu.s.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoOrders implements OrderRepository.
type MongoOrders struct{ s *MongoStore }

var _ OrderRepository = (*MongoOrders)(nil)

func (mo *MongoOrders) Create(ctx context.Context, o *domain.Order) error {
	o.CreatedAt = mo.s.now()
	o.UpdatedAt = o.CreatedAt
	doc, err := orderToDoc(*o)
	if err != nil {
		return err
	}
	res, err := mo.s.orders.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (mo *MongoOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc orderDoc
	if err := mo.s.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o, err := orderFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (mo *MongoOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc orderDoc
	err = mo.s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": mo.s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	o, err := orderFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (mo *MongoOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	cur, err := mo.s.orders.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := orderFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// MongoTx runs fn inside a session transaction when enabled. Transactions
// need a replica set.
type MongoTx struct {
	client  *mongo.Client
	enabled bool
}

func (tx *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !tx.enabled {
		return fn(ctx)
	}
	sess, err := tx.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
