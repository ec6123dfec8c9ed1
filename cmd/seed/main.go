package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-invoice-dashboard/config"
	"github.com/oksasatya/go-invoice-dashboard/pkg/helpers"
)

// Bootstraps the schema and seeds demo data for local development.
// Idempotent: tables are created if absent, rows are upserted.

const schema = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS users (
	id UUID DEFAULT uuid_generate_v4() PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	name VARCHAR(255) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id UUID DEFAULT uuid_generate_v4() PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email TEXT NOT NULL UNIQUE,
	image_url VARCHAR(255) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS invoices (
	id UUID DEFAULT uuid_generate_v4() PRIMARY KEY,
	customer_id UUID NOT NULL REFERENCES customers(id),
	amount BIGINT NOT NULL,
	status VARCHAR(255) NOT NULL,
	date DATE NOT NULL,
	attachment_url VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var customers = []struct {
	Name  string
	Email string
}{
	{"Evil Rabbit", "evil@rabbit.com"},
	{"Delba de Oliveira", "delba@oliveira.com"},
	{"Lee Robinson", "lee@robinson.com"},
	{"Michael Novotny", "michael@novotny.com"},
	{"Amy Burns", "amy@burns.com"},
	{"Balazs Orban", "balazs@orban.com"},
}

var invoices = []struct {
	CustomerIdx int
	Amount      int64
	Status      string
	Date        string
}{
	{0, 15795, "pending", "2025-12-06"},
	{1, 20348, "pending", "2025-11-14"},
	{4, 3040, "paid", "2025-10-29"},
	{3, 44800, "paid", "2025-09-10"},
	{5, 34577, "pending", "2025-08-05"},
	{2, 54246, "pending", "2025-07-16"},
	{0, 666, "pending", "2025-06-27"},
	{3, 32545, "paid", "2025-06-09"},
	{4, 1250, "paid", "2025-06-17"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	// demo login
	email := "user@nextmail.com"
	password := "123456"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var userID string
	err = db.QueryRow(`
		INSERT INTO users (email, password, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, "User").Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", userID, email, password)

	customerIDs := make([]string, len(customers))
	for i, c := range customers {
		err := db.QueryRow(`
			INSERT INTO customers (name, email)
			VALUES ($1, $2)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, c.Name, c.Email).Scan(&customerIDs[i])
		if err != nil {
			log.Fatalf("failed to seed customer %s: %v", c.Email, err)
		}
	}
	fmt.Printf("seeded %d customers\n", len(customers))

	seeded := 0
	for _, inv := range invoices {
		res, err := db.Exec(`
			INSERT INTO invoices (customer_id, amount, status, date)
			SELECT $1, $2, $3, $4::date
			WHERE NOT EXISTS (
				SELECT 1 FROM invoices WHERE customer_id = $1 AND amount = $2 AND date = $4::date
			)
		`, customerIDs[inv.CustomerIdx], inv.Amount, inv.Status, inv.Date)
		if err != nil {
			log.Fatalf("failed to seed invoice: %v", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}
	fmt.Printf("seeded %d invoices\n", seeded)
}
