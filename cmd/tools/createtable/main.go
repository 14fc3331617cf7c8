package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	// one statement per Exec so the DSN needs no multiStatements flag
	tables := []struct {
		name string
		ddl  string
	}{
		{"orders", `
	CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  merchant_order_id VARCHAR(64) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  paid_at DATETIME(3) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_orders_merchant_order_id (merchant_order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"order_refunds", `
	CREATE TABLE IF NOT EXISTS order_refunds (
	  id CHAR(36) NOT NULL,
	  merchant_refund_id VARCHAR(64) NOT NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_refunds_merchant_refund_id (merchant_refund_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	}

	for _, t := range tables {
		if _, err := sqlDB.Exec(t.ddl); err != nil {
			log.Fatalf("Failed to create %s table: %v", t.name, err)
		}
		log.Printf("✓ %s table created successfully", t.name)
	}
}
