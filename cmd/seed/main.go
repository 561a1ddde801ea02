// Seeds the stub appointment store with available doctors and a raft of
// pending bookings so a fresh frontdesk has something to aggregate.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careport/frontdesk/internal/db"
	"github.com/careport/frontdesk/internal/stubsvc"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	campus := os.Getenv("SEED_CAMPUS")
	if campus == "" {
		campus = "main"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := stubsvc.NewStore(pool).Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 12)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedBookings(context.Background(), pool, campus, doctorIDs, 40); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("D%03d", i+1)
		name := "Dr. " + gofakeit.Name()

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, available, created_at)
			VALUES ($1, $2, TRUE, now())
			ON CONFLICT (id) DO NOTHING
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, campus string, doctorIDs []string, count int) error {
	log.Printf("seeding %d pending bookings for campus %s", count, campus)

	reasons := []string{
		"fever and chills",
		"persistent cough",
		"migraine",
		"sprained ankle",
		"routine check-up",
		"sore throat",
		"back pain",
		"allergic reaction",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := strings.ToLower(gofakeit.Username()) + "@" + gofakeit.DomainName()
		reason := reasons[gofakeit.Number(0, len(reasons)-1)]

		var preferredID, preferredName, prefReason *string
		if gofakeit.Bool() {
			idx := gofakeit.Number(0, len(doctorIDs)-1)
			preferredID = &doctorIDs[idx]
			n := "Dr. " + gofakeit.LastName()
			preferredName = &n
			why := gofakeit.Sentence(6)
			prefReason = &why
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments
				(id, email, name, reason, status, campus,
				 preferred_doctor_id, preferred_doctor_name, preference_reason,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8,
			        now() - ($9 || ' minutes')::interval, now())
		`, uuid.New(), email, name, reason, campus,
			preferredID, preferredName, prefReason,
			gofakeit.Number(1, 120))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
