package httpapi

import (
	"net/http"
	"time"

	"keep-backend-go/internal/config"
	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	DB        *sqlx.DB
	Config    config.Config
	Tokens    services.TokenService
	Inventory *services.Inventory
	Hub       *services.TheftHub
	Log       *zap.Logger
}

func NewTokenService(cfg config.Config) services.TokenService {
	return services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
}

func NewServer(db *sqlx.DB, cfg config.Config, inventory *services.Inventory, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		DB:        db,
		Config:    cfg,
		Tokens:    NewTokenService(cfg),
		Inventory: inventory,
		Hub:       inventory.Hub,
		Log:       logger.Named("http"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.Log))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.Register)
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/assets/{token}", s.PublicAsset)
			pub.With(OptionalAuth(s.Tokens)).Post("/theft-reports", s.ReportTheft)
			pub.Get("/photos/{photoId}", s.PublicPhoto)
		})

		api.Group(func(auth chi.Router) {
			auth.Use(WithAuth(s.Tokens))

			auth.Get("/me", s.Me)
			auth.Put("/me/profile", s.UpdateProfile)

			auth.Route("/assets", func(assets chi.Router) {
				assets.Get("/", s.ListAssets)
				assets.Post("/", s.CreateAsset)
				assets.Route("/{assetId}", func(asset chi.Router) {
					asset.Get("/", s.GetAsset)
					asset.Put("/", s.UpdateAsset)
					asset.Delete("/", s.DeleteAsset)
					asset.Get("/qr", s.AssetQR)

					asset.Post("/assign", s.AssignAsset)
					asset.Post("/return", s.ReturnAsset)
					asset.Get("/assignments", s.ListAssignments)

					asset.Get("/notes", s.ListNotes)
					asset.Post("/notes", s.CreateNote)

					asset.Get("/insurance", s.GetInsurance)
					asset.Put("/insurance", s.PutInsurance)
					asset.Delete("/insurance", s.DeleteInsurance)

					asset.Get("/photos", s.ListPhotos)
					asset.Post("/photos", s.UploadPhoto)

					asset.Get("/documents", s.ListDocuments)
					asset.Post("/documents", s.UploadDocument)

					asset.Get("/theft-reports", s.AssetTheftReports)
				})
			})

			auth.Put("/assignments/{assignmentId}", s.UpdateAssignment)

			auth.Put("/notes/{noteId}", s.UpdateNote)
			auth.Delete("/notes/{noteId}", s.DeleteNote)

			auth.Put("/photos/{photoId}/primary", s.SetPrimaryPhoto)
			auth.Delete("/photos/{photoId}", s.DeletePhoto)

			auth.Get("/documents/{documentId}/content", s.DocumentContent)
			auth.Delete("/documents/{documentId}", s.DeleteDocument)

			auth.Get("/theft-reports", s.ListTheftReports)
			auth.Put("/theft-reports/{reportId}", s.UpdateTheftReport)

			auth.Route("/categories", func(categories chi.Router) {
				categories.Get("/", s.ListCategories)
				categories.Post("/", s.CreateCategory)
				categories.Put("/{categoryId}", s.UpdateCategory)
				categories.Delete("/{categoryId}", s.DeleteCategory)
			})

			auth.Get("/dashboard/stats", s.DashboardStats)
			auth.Get("/dashboard/reminders", s.DashboardReminders)
			auth.Get("/search", s.Search)

			auth.With(RequireRole("admin")).Get("/admin/status", s.AdminStatus)
		})
	})

	r.Get("/ws/theft-reports", s.TheftSocket)
	return r
}
