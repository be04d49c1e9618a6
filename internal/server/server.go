package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobook/internal/ability"
	"photobook/internal/config"
	"photobook/internal/database"
	"photobook/internal/handler"
	"photobook/internal/middleware"
	"photobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    zerolog.Logger
}

func Init(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.RunMigrations {
		if err := database.Migrate(cfg, log); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to database")

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	Routes(r, NewRepositories(db), cfg, log)

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Log:    log,
	}, nil
}

// Repositories groups the storage the routes are wired to
type Repositories struct {
	Users       *repository.UserRepository
	Books       *repository.BookRepository
	Friends     *repository.BookFriendRepository
	Assignments *repository.PageAssignmentRepository
	Questions   *repository.QuestionRepository
	Answers     *repository.AnswerRepository
	Themes      *repository.ThemeRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:       repository.NewUserRepository(db),
		Books:       repository.NewBookRepository(db),
		Friends:     repository.NewBookFriendRepository(db),
		Assignments: repository.NewPageAssignmentRepository(db),
		Questions:   repository.NewQuestionRepository(db),
		Answers:     repository.NewAnswerRepository(db),
		Themes:      repository.NewThemeRepository(db),
	}
}

// Routes registers every endpoint on r
func Routes(r *gin.Engine, repos Repositories, cfg *config.Config, log zerolog.Logger) {
	userHandler := handler.NewUserHandler(repos.Users, handler.AuthSettings{
		Secret:       cfg.JWTSecret,
		TokenTTL:     cfg.JWTExpiry,
		IsAdminEmail: cfg.IsAdminEmail,
	})
	bookHandler := handler.NewBookHandler(repos.Books, repos.Friends, repos.Assignments, repos.Questions, log)
	questionHandler := handler.NewQuestionHandler(repos.Questions)
	answerHandler := handler.NewAnswerHandler(repos.Answers, repos.Questions, repos.Friends)
	friendHandler := handler.NewFriendHandler(repos.Books, repos.Users, repos.Friends)
	assignmentHandler := handler.NewAssignmentHandler(repos.Assignments, repos.Friends)
	adminHandler := handler.NewAdminHandler(repos.Books, repos.Users, repos.Themes)

	can := middleware.RequireBookPermission

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("/books", bookHandler.List)
		authorized.POST("/books", bookHandler.Create)
		authorized.GET("/themes", adminHandler.ListThemes)
		authorized.GET("/palettes", adminHandler.ListPalettes)
		authorized.POST("/answers", answerHandler.Upsert)

		book := authorized.Group("/books/:id", middleware.LoadBookAbility(repos.Friends))
		{
			book.GET("", can(ability.ActionView, ability.SubjectBook), bookHandler.Get)
			book.PUT("", can(ability.ActionEdit, ability.SubjectPage), bookHandler.Save)
			book.POST("/actions", bookHandler.ApplyActions)
			book.GET("/user-role", bookHandler.UserRole)

			book.GET("/questions", can(ability.ActionView, ability.SubjectQuestions), questionHandler.List)
			book.POST("/questions", can(ability.ActionCreate, ability.SubjectQuestions), questionHandler.Create)

			book.GET("/friends", can(ability.ActionView, ability.SubjectBookFriends), friendHandler.List)
			book.POST("/friends", can(ability.ActionManage, ability.SubjectBookFriends), friendHandler.Add)
			book.DELETE("/friends/:user_id", can(ability.ActionManage, ability.SubjectBookFriends), friendHandler.Remove)

			book.GET("/page-assignments", can(ability.ActionView, ability.SubjectPageAssignments), assignmentHandler.List)
			book.PUT("/page-assignments", can(ability.ActionManage, ability.SubjectPageAssignments), assignmentHandler.Replace)
		}

		authorized.GET("/answers/book/:id",
			middleware.LoadBookAbility(repos.Friends),
			can(ability.ActionView, ability.SubjectAnswers),
			answerHandler.ListByBook)

		question := authorized.Group("/questions/:id",
			middleware.LoadBookAbilityFrom(repos.Friends, questionHandler.BookOfQuestion()))
		{
			question.GET("", can(ability.ActionView, ability.SubjectQuestions), questionHandler.Get)
			question.PUT("", can(ability.ActionEdit, ability.SubjectQuestions), questionHandler.Update)
			question.DELETE("", can(ability.ActionDelete, ability.SubjectQuestions), questionHandler.Delete)
		}

		admin := authorized.Group("/admin", middleware.RequireAdmin(repos.Users))
		{
			admin.GET("/books", adminHandler.ListBooks)
			admin.DELETE("/books/:id", adminHandler.DeleteBook)

			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id", adminHandler.SetAdmin)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/themes", adminHandler.ListThemes)
			admin.POST("/themes", adminHandler.CreateTheme)
			admin.PUT("/themes/:id", adminHandler.UpdateTheme)
			admin.DELETE("/themes/:id", adminHandler.DeleteTheme)

			admin.GET("/palettes", adminHandler.ListPalettes)
			admin.POST("/palettes", adminHandler.CreatePalette)
			admin.PUT("/palettes/:id", adminHandler.UpdatePalette)
			admin.DELETE("/palettes/:id", adminHandler.DeletePalette)
		}
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info().Str("port", s.Config.ServerPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	s.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.Log.Info().Msg("server exited properly")
	return nil
}
