package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/rankscout/rankscout/internal/models"
	"github.com/rankscout/rankscout/internal/research"
)

// Connect opens the MySQL store and migrates the schema.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &research.Session{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
