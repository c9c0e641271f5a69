package main

import (
	"context"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/invoice"
	"storefront/internal/logger"
	"storefront/internal/mailer"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/storage"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 15 * time.Minute,
	}
}

// ロールはclaimsに入れない。管理者判定はリクエスト時にDBを見る。
func (i *jwtIssuer) Issue(userID int64, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envは無くてもよい（本番は環境変数直指定）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.Review{},
		&model.Order{},
		&model.OrderItem{},
		&model.PasswordReset{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	roleRepo := infraRepo.NewRoleGormRepository(gormDB)
	permRepo := infraRepo.NewPermissionGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	resetRepo := infraRepo.NewPasswordResetGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//商品リポジトリ。REDIS_ADDRがあればキャッシュを被せる。
	var productRepo repository.ProductRepository = infraRepo.NewProductGormRepository(gormDB)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		productRepo = cache.NewCachedProductRepository(productRepo, rdb)
		logger.Logger.Info("product cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	//画像ストレージ（local / s3）
	var fileStore storage.FileStorage
	if cfg.StorageDriver == "s3" {
		fileStore, err = storage.NewS3Storage(cfg.S3Region, cfg.S3Bucket)
	} else {
		fileStore, err = storage.NewLocalStorage(cfg.LocalStoragePath)
	}
	if err != nil {
		panic(err)
	}

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := newJWTIssuer(cfg.JWTSecret)

	smtp := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	pdfRenderer := invoice.NewPDFRenderer()
	intents := payment.NewStripeIntentCreator(cfg.StripeSecretKey)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(txManager, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	resetUC := auth.NewPasswordResetUsecase(userRepo, resetRepo, hasher, smtp, clock, cfg.AppBaseURL)

	orderUC := usecase.NewOrderUsecase(txManager, addressRepo, userRepo, idGen, clock)
	exportUC := usecase.NewOrderExportUsecase(txManager, userRepo, addressRepo, pdfRenderer, intents)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, clock)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, fileStore, idGen)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, userRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	userUC := usecase.NewUserUsecase(userRepo)
	rbacUC := usecase.NewRBACUsecase(roleRepo, permRepo, userRepo)

	//「Guest」ロールは必ず用意しておく
	if _, err := roleRepo.GetOrCreate(context.Background(), model.RoleNameGuest); err != nil {
		panic(err)
	}

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, resetUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Review:       handler.NewReviewHandler(reviewUC),
		Address:      handler.NewAddressHandler(addressUC),
		Order:        handler.NewOrderHandler(orderUC, exportUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		User:         handler.NewUserHandler(userUC),
		Role:         handler.NewRoleHandler(rbacUC),
	}

	//Server起動
	e := server.New()
	server.RegisterRoutes(e, cfg, userRepo, handlers)

	addr := ":" + cfg.Port
	logger.Logger.Info("server starting", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		logger.Logger.Fatal("server stopped", zap.Error(err))
	}
}
