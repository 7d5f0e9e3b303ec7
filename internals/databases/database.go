package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	favoriteModel "medcard_backend/internals/features/catalog/favorites/model"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
	authModel "medcard_backend/internals/features/users/auth/model"
	userModel "medcard_backend/internals/features/users/user/model"
	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

var DB *gorm.DB

func ConnectDB(cfg configs.AppConfig) {
	log.Println("🔌 Connecting to PostgreSQL...")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(cfg.SlowSQLThreshold),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel.UserModel{},
		&authModel.TokenBlacklist{},
		&profileModel.UserProfileModel{},
		&themeModel.ThemeModel{},
		&ticketModel.TicketModel{},
		&questionModel.QuestionModel{},
		&questionModel.AnswerModel{},
		&sessionModel.TicketProgressModel{},
		&sessionModel.UserAnswerModel{},
		&favoriteModel.FavoriteModel{},
		&remediationModel.RemediationRunModel{},
	)
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		DB.Exec("SELECT 1 FROM themes LIMIT 1")
	}()
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
