package storage

import (
	"lunarcms/internal/config"
	"lunarcms/internal/util/logger"
	"os"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

var (
	once sync.Once
	db   *gorm.DB
)

func GetDb() *gorm.DB {
	once.Do(func() {
		log := logger.GetLogger()
		env := config.GetEnv()

		database, err := gorm.Open(postgres.Open(env.DatabaseDsn), &gorm.Config{
			Logger: gorm_logger.Default.LogMode(gorm_logger.Warn),
		})
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		db = database
	})

	return db
}
