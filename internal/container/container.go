package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/rendez/internal/config"
	"github.com/joshua-takyi/rendez/internal/handlers"
	"github.com/joshua-takyi/rendez/internal/helpers"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/realtime"
	"github.com/joshua-takyi/rendez/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	Tokens  *helpers.TokenValidator
	Hub     *realtime.Hub
	Cookies handlers.AuthCookies

	AccountService   *services.AccountService
	ProfileService   *services.ProfileService
	DiscoveryService *services.DiscoveryService
	MatchService     *services.MatchService
}

type store interface {
	models.ProfileRepo
	models.MatchRepo
}

// NewContainer wires repositories and services. mongoDBClient is only used
// when the mongo store is selected; cld may be nil.
func NewContainer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
) (*Container, error) {
	var repo store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		repo = models.NewMemoryRepo()
	default:
		mongoRepo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("error ensuring indexes: %v", err)
		}
		repo = mongoRepo
	}

	tokens, err := helpers.NewTokenValidator(ctx, cfg.JWTSecret, cfg.JWKSURL, logger)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	accounts := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	photos := helpers.NewPhotoUploader(cld)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		SupabaseClient:   supabaseClient,
		MongoDBClient:    mongoDBClient,
		Tokens:           tokens,
		Hub:              hub,
		Cookies:          handlers.AuthCookies{Secure: cfg.IsProduction()},
		AccountService:   services.NewAccountService(accounts, repo, logger),
		ProfileService:   services.NewProfileService(repo, photos, hub, logger),
		DiscoveryService: services.NewDiscoveryService(repo, cfg.DiscoveryPageLimit),
		MatchService:     services.NewMatchService(repo, repo, hub, logger),
	}, nil
}

// Close stops background work owned by the container.
func (c *Container) Close() {
	if c.Tokens != nil {
		c.Tokens.Close()
	}
}
