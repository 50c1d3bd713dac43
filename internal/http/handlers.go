package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/media"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// Services are the application services the API exposes.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService
	// Images, when set, serves locally stored product images under /media.
	Images ImageFiles
}

// ImageFiles looks up image bytes by handle.
type ImageFiles interface {
	Get(handle string) ([]byte, bool)
}

type Server struct {
	engine *gin.Engine
	svc    Services
	tokens *auth.Tokens
	log    *zap.Logger
}

// NewServer builds the gin engine. CORS is enabled only when allowedOrigins
// is non-empty; "*" allows any origin.
func NewServer(svc Services, tokens *auth.Tokens, log *zap.Logger, allowedOrigins []string) *Server {
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())
	if len(allowedOrigins) > 0 {
		cfg := cors.DefaultConfig()
		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = allowedOrigins
		}
		cfg.AddAllowHeaders("token", "Authorization")
		r.Use(cors.New(cfg))
	}
	s := &Server{engine: r, svc: svc, tokens: tokens, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "API Working") })
	if s.svc.Images != nil {
		s.engine.GET("/media/:handle", s.serveImage)
	}

	api := s.engine.Group("/api")
	{
		user := api.Group("/user")
		user.POST("/register", s.register)
		user.POST("/login", s.login)
		user.POST("/admin", s.adminLogin)

		product := api.Group("/product")
		product.GET("/list", s.listProducts)
		product.POST("/single", s.getProduct)
		productAdmin := product.Group("", s.requireAuth(), s.requireAdmin())
		productAdmin.POST("/add", s.addProduct)
		productAdmin.POST("/remove", s.removeProduct)

		cart := api.Group("/cart", s.requireAuth())
		cart.POST("/add", s.addToCart)
		cart.POST("/get", s.getCart)
		cart.POST("/update", s.updateCart)

		order := api.Group("/order", s.requireAuth())
		order.POST("/place", s.placeOrder)
		order.POST("/userorders", s.userOrders)
		order.POST("/list", s.requireAdmin(), s.allOrders)
		order.POST("/status", s.requireAdmin(), s.updateStatus)
	}
}

// bindJSON decodes the body; an empty body leaves req zero.
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		s.fail(c, domain.Validation("invalid json"))
		return false
	}
	return true
}

// User handlers
type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Register a shopper
// @Tags user
// @Accept json
// @Produce json
// @Param input body registerReq true "Account"
// @Success 200 {object} map[string]any
// @Router /user/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if !s.bindJSON(c, &req) {
		return
	}
	token, err := s.svc.Users.Register(c, req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"token": token})
}

// @Summary Shopper login
// @Tags user
// @Accept json
// @Produce json
// @Param input body credentialsReq true "Credentials"
// @Success 200 {object} map[string]any
// @Router /user/login [post]
func (s *Server) login(c *gin.Context) {
	var req credentialsReq
	if !s.bindJSON(c, &req) {
		return
	}
	token, err := s.svc.Users.Login(c, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"token": token})
}

// @Summary Admin login
// @Tags user
// @Accept json
// @Produce json
// @Param input body credentialsReq true "Credentials"
// @Success 200 {object} map[string]any
// @Router /user/admin [post]
func (s *Server) adminLogin(c *gin.Context) {
	var req credentialsReq
	if !s.bindJSON(c, &req) {
		return
	}
	token, err := s.svc.Users.AdminLogin(req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"token": token})
}

func (s *Server) serveImage(c *gin.Context) {
	b, found := s.svc.Images.Get(c.Param("handle"))
	if !found {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(b), b)
}

// Product handlers

// @Summary Add product
// @Tags product
// @Accept mpfd
// @Produce json
// @Param token header string true "Admin token"
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Param price formData number true "Price"
// @Param category formData string true "Category"
// @Param subCategory formData string false "Sub category"
// @Param sizes formData string true "JSON array of sizes"
// @Param bestSeller formData boolean false "Best seller"
// @Param image1 formData file false "Image"
// @Param image2 formData file false "Image"
// @Param image3 formData file false "Image"
// @Param image4 formData file false "Image"
// @Success 200 {object} map[string]any
// @Router /product/add [post]
func (s *Server) addProduct(c *gin.Context) {
	in, err := productForm(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	uploads, closeAll, err := formImages(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer closeAll()

	p, err := s.svc.Products.Add(c, capability(c), in, uploads)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Product Added", "product": p})
}

func productForm(c *gin.Context) (service.NewProduct, error) {
	in := service.NewProduct{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		SubCategory: c.PostForm("subCategory"),
		BestSeller:  c.PostForm("bestSeller") == "true",
	}
	if v := strings.TrimSpace(c.PostForm("price")); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, domain.Validation("price must be a number")
		}
		in.Price = &price
	}
	if v := c.PostForm("sizes"); v != "" {
		if err := json.Unmarshal([]byte(v), &in.Sizes); err != nil {
			return in, domain.Validation("sizes must be a JSON array of strings")
		}
	}
	return in, nil
}

// formImages opens image1..image4, skipping absent fields.
func formImages(c *gin.Context) ([]media.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	var uploads []media.Upload
	for i := 1; i <= service.MaxProductImages; i++ {
		fh, err := c.FormFile(fmt.Sprintf("image%d", i))
		if err != nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, domain.Validationf("could not read image%d", i)
		}
		files = append(files, f)
		uploads = append(uploads, media.Upload{Name: fh.Filename, Body: f})
	}
	return uploads, closeAll, nil
}

// @Summary List products
// @Description Malformed bestSeller, minPrice or maxPrice values fail with kind validation.
// @Tags product
// @Produce json
// @Param q query string false "Name contains"
// @Param category query string false "Category"
// @Param subCategory query string false "Sub category"
// @Param bestSeller query boolean false "Best sellers only"
// @Param minPrice query number false "Min price"
// @Param maxPrice query number false "Max price"
// @Success 200 {object} map[string]any
// @Router /product/list [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{
		NameSubstring: c.Query("q"),
		Category:      c.Query("category"),
		SubCategory:   c.Query("subCategory"),
	}
	if v := c.Query("bestSeller"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(c, domain.Validation("bestSeller must be true or false"))
			return
		}
		f.BestSellerOnly = b
	}
	for _, q := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		v := c.Query(q.name)
		if v == "" {
			continue
		}
		x, err := decimal.NewFromString(v)
		if err != nil {
			s.fail(c, domain.Validation(q.name+" must be a number"))
			return
		}
		*q.dst = &x
	}
	list, err := s.svc.Products.List(c, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"products": list})
}

type productIDReq struct {
	ProductID string `json:"productId"`
}

// @Summary Get product
// @Tags product
// @Accept json
// @Produce json
// @Param input body productIDReq true "Product"
// @Success 200 {object} map[string]any
// @Router /product/single [post]
func (s *Server) getProduct(c *gin.Context) {
	var req productIDReq
	if !s.bindJSON(c, &req) {
		return
	}
	p, err := s.svc.Products.Get(c, req.ProductID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"product": p})
}

type removeProductReq struct {
	ID string `json:"id"`
}

// @Summary Remove product
// @Tags product
// @Accept json
// @Produce json
// @Param token header string true "Admin token"
// @Param input body removeProductReq true "Product"
// @Success 200 {object} map[string]any
// @Router /product/remove [post]
func (s *Server) removeProduct(c *gin.Context) {
	var req removeProductReq
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.svc.Products.Remove(c, capability(c), req.ID); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Product Removed"})
}

// Cart handlers
type cartItemReq struct {
	ItemID   string `json:"itemId"`
	Size     string `json:"size"`
	Quantity *int   `json:"quantity"`
}

// @Summary Add one unit to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param token header string true "User token"
// @Param input body cartItemReq true "Item"
// @Success 200 {object} map[string]any
// @Router /cart/add [post]
func (s *Server) addToCart(c *gin.Context) {
	var req cartItemReq
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.svc.Carts.AddItem(c, capability(c), req.ItemID, req.Size); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Added To Cart"})
}

// @Summary Set a cart quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param token header string true "User token"
// @Param input body cartItemReq true "Item and quantity"
// @Success 200 {object} map[string]any
// @Router /cart/update [post]
func (s *Server) updateCart(c *gin.Context) {
	var req cartItemReq
	if !s.bindJSON(c, &req) {
		return
	}
	if req.Quantity == nil {
		s.fail(c, domain.Validation("quantity is required"))
		return
	}
	if err := s.svc.Carts.SetQuantity(c, capability(c), req.ItemID, req.Size, *req.Quantity); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Cart Updated"})
}

// @Summary Get the cart
// @Tags cart
// @Produce json
// @Param token header string true "User token"
// @Success 200 {object} map[string]any
// @Router /cart/get [post]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.svc.Carts.GetCart(c, capability(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"cartData": cart.Map()})
}

// Order handlers
type placeOrderReq struct {
	Address       domain.Address       `json:"address"`
	Amount        *decimal.Decimal     `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// @Summary Place a cash-on-delivery order from the cart
// @Tags order
// @Accept json
// @Produce json
// @Param token header string true "User token"
// @Param input body placeOrderReq true "Shipping address"
// @Success 200 {object} map[string]any
// @Router /order/place [post]
func (s *Server) placeOrder(c *gin.Context) {
	var req placeOrderReq
	if !s.bindJSON(c, &req) {
		return
	}
	o, err := s.svc.Orders.PlaceOrder(c, capability(c), service.PlaceOrderRequest{
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		ClientAmount:  req.Amount,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Order Placed", "order": o})
}

// @Summary Orders of the logged-in shopper
// @Tags order
// @Produce json
// @Param token header string true "User token"
// @Success 200 {object} map[string]any
// @Router /order/userorders [post]
func (s *Server) userOrders(c *gin.Context) {
	capa := capability(c)
	if _, err := capa.RequireOwner(); err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.svc.Orders.ListOrders(c, capa)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"orders": list})
}

// @Summary All orders
// @Tags order
// @Produce json
// @Param token header string true "Admin token"
// @Success 200 {object} map[string]any
// @Router /order/list [post]
func (s *Server) allOrders(c *gin.Context) {
	list, err := s.svc.Orders.ListOrders(c, capability(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"orders": list})
}

type updateStatusReq struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// @Summary Update order status
// @Tags order
// @Accept json
// @Produce json
// @Param token header string true "Admin token"
// @Param input body updateStatusReq true "Status"
// @Success 200 {object} map[string]any
// @Router /order/status [post]
func (s *Server) updateStatus(c *gin.Context) {
	var req updateStatusReq
	if !s.bindJSON(c, &req) {
		return
	}
	o, err := s.svc.Orders.SetStatus(c, capability(c), req.OrderID, req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Status Updated", "order": o})
}
