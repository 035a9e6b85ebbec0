package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// 초기 데이터베이스 세팅 스크립트.
// 스키마를 만들고 기본 관리자 계정(admin/admin)과 데모 팀 두 개를 넣는다.
// 실행: go run setup_database.go
func main() {
	// Load .env file
	_ = godotenv.Load()

	// Get database URL from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set in environment")
	}

	// Connect to database
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Test connection
	err = db.Ping()
	if err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	fmt.Println("✅ Connected to database successfully!")

	// Create schema
	statements := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS flags (
			value TEXT PRIMARY KEY,
			owner TEXT NOT NULL REFERENCES teams(name) ON DELETE CASCADE ON UPDATE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS flag_submissions (
			id BIGSERIAL PRIMARY KEY,
			flag_value TEXT NOT NULL REFERENCES flags(value) ON DELETE CASCADE ON UPDATE CASCADE,
			team_name TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (flag_value, team_name)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY,
			team_name TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatal("Failed to create schema:", err)
		}
	}

	fmt.Println("✅ Schema created successfully!")

	// Create default admin account
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash admin password:", err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (id, username, password_hash)
		VALUES ($1, 'admin', $2)
		ON CONFLICT (username) DO NOTHING
	`, uuid.NewString(), string(adminHash))
	if err != nil {
		log.Fatal("Failed to create admin account:", err)
	}

	fmt.Println("✅ Default admin account ready (admin/admin)")

	// Seed demo teams with flags
	demoTeams := []struct {
		name     string
		username string
		password string
	}{
		{"Red Team", "red", "redpass"},
		{"Blue Team", "blue", "bluepass"},
	}

	const flagsPerTeam = 5

	for _, team := range demoTeams {
		hash, err := bcrypt.GenerateFromPassword([]byte(team.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash team password:", err)
		}

		res, err := db.Exec(`
			INSERT INTO teams (id, name, username, password_hash, score)
			VALUES ($1, $2, $3, $4, 0)
			ON CONFLICT (name) DO NOTHING
		`, uuid.NewString(), team.name, team.username, string(hash))
		if err != nil {
			log.Fatal("Failed to create team:", err)
		}

		inserted, _ := res.RowsAffected()
		if inserted == 0 {
			fmt.Printf("  - %s already exists, skipping\n", team.name)
			continue
		}

		for i := 0; i < flagsPerTeam; i++ {
			_, err := db.Exec(`INSERT INTO flags (value, owner) VALUES ($1, $2)`, uuid.NewString(), team.name)
			if err != nil {
				log.Fatal("Failed to create flag:", err)
			}
		}

		fmt.Printf("✅ Team %q created with %d flags\n", team.name, flagsPerTeam)
	}

	// Verify seed
	var teamCount, flagCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&teamCount); err != nil {
		log.Fatal("Failed to verify teams:", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM flags").Scan(&flagCount); err != nil {
		log.Fatal("Failed to verify flags:", err)
	}

	fmt.Printf("\n📋 Database ready: %d teams, %d flags\n", teamCount, flagCount)
}
