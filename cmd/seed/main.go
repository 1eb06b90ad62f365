package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowdesk/scheduler/internal/db"
)

const (
	staffCount       = 8
	appointmentCount = 200
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()
	businessID, err := seedBusiness(seedCtx, pool)
	if err != nil {
		log.Fatalf("seed business: %v", err)
	}
	staffIDs, err := seedStaff(seedCtx, pool, businessID, staffCount)
	if err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	serviceIDs, err := seedServices(seedCtx, pool, businessID)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedStaffServices(seedCtx, pool, staffIDs, serviceIDs); err != nil {
		log.Fatalf("seed staff services: %v", err)
	}
	if err := seedConstraints(seedCtx, pool, staffIDs); err != nil {
		log.Fatalf("seed constraints: %v", err)
	}
	if err := seedAppointments(seedCtx, pool, staffIDs, appointmentCount); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedBusiness(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO businesses (id, name, timezone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, now(), now())
	`, id, gofakeit.Company()+" Salon", "America/New_York")
	if err != nil {
		return uuid.Nil, err
	}

	// Business hours: Mon-Fri 09:00-18:00 with a lunch break, Sat 10:00-16:00.
	for weekday := 1; weekday <= 5; weekday++ {
		_, err = tx.Exec(ctx, `
			INSERT INTO working_hours (id, owner_type, owner_id, weekday, start_time, end_time, break_start_time, break_end_time, is_active)
			VALUES ($1, 'business', $2, $3, '09:00', '18:00', '12:00', '13:00', TRUE)
		`, uuid.New(), id, weekday)
		if err != nil {
			return uuid.Nil, err
		}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO working_hours (id, owner_type, owner_id, weekday, start_time, end_time, is_active)
		VALUES ($1, 'business', $2, 6, '10:00', '16:00', TRUE)
	`, uuid.New(), id)
	if err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	log.Println("business seeded")
	return id, nil
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool, businessID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d staff", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO staff (id, business_id, name, is_active, is_bookable, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, TRUE, now(), now())
		`, id, businessID, gofakeit.Name())
		if err != nil {
			return nil, err
		}

		// Every third staff member works a later shift than the salon default.
		if i%3 == 0 {
			for weekday := 2; weekday <= 6; weekday++ {
				_, err = tx.Exec(ctx, `
					INSERT INTO working_hours (id, owner_type, owner_id, weekday, start_time, end_time, break_start_time, break_end_time, is_active)
					VALUES ($1, 'staff', $2, $3, '11:00', '20:00', '15:00', '15:30', TRUE)
				`, uuid.New(), id, weekday)
				if err != nil {
					return nil, err
				}
			}
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("staff seeded")
	return ids, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool, businessID uuid.UUID) ([]uuid.UUID, error) {
	services := []struct {
		name                          string
		duration, bufBefore, bufAfter int
	}{
		{"Haircut", 30, 0, 10},
		{"Color & Highlights", 90, 5, 15},
		{"Blowout", 45, 0, 5},
		{"Deep Conditioning", 30, 0, 0},
		{"Bridal Styling", 120, 15, 15},
	}
	addons := []struct {
		service string
		name    string
		extra   int
	}{
		{"Haircut", "Beard Trim", 10},
		{"Haircut", "Scalp Massage", 15},
		{"Color & Highlights", "Toner", 20},
		{"Blowout", "Curl Finish", 15},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(services))
	byName := make(map[string]uuid.UUID, len(services))
	for _, s := range services {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, business_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		`, id, businessID, s.name, s.duration, s.bufBefore, s.bufAfter)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		byName[s.name] = id
	}

	// Bridal styling takes long enough that it gets its own booking policy.
	_, err = tx.Exec(ctx, `
		UPDATE services SET min_lead_time_hours = 48, max_advance_booking_days = 180
		WHERE id = $1
	`, byName["Bridal Styling"])
	if err != nil {
		return nil, err
	}

	for _, a := range addons {
		_, err := tx.Exec(ctx, `
			INSERT INTO service_addons (id, service_id, name, extra_duration_minutes, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
		`, uuid.New(), byName[a.service], a.name, a.extra)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Println("services seeded")
	return ids, nil
}

func seedStaffServices(ctx context.Context, pool *pgxpool.Pool, staffIDs, serviceIDs []uuid.UUID) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, staffID := range staffIDs {
		for j, serviceID := range serviceIDs {
			// A sprinkling of per-staff overrides: senior stylists are faster.
			if (i+j)%4 != 0 {
				continue
			}
			override := 5 * gofakeit.Number(4, 8)
			_, err := tx.Exec(ctx, `
				INSERT INTO staff_services (staff_id, service_id, override_duration_minutes, is_available)
				VALUES ($1, $2, $3, TRUE)
			`, staffID, serviceID, override)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("staff services seeded")
	return nil
}

func seedConstraints(ctx context.Context, pool *pgxpool.Pool, staffIDs []uuid.UUID) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for i, staffID := range staffIDs {
		// One upcoming vacation each, alternating approved and pending so the
		// engine has both kinds to ignore or honor.
		status := "approved"
		if i%2 == 1 {
			status = "pending"
		}
		start := now.AddDate(0, 0, gofakeit.Number(7, 21))
		_, err := tx.Exec(ctx, `
			INSERT INTO time_off (id, staff_id, start_datetime, end_datetime, type, status, is_all_day)
			VALUES ($1, $2, $3, $4, 'vacation', $5, TRUE)
		`, uuid.New(), staffID, start, start.AddDate(0, 0, 2), status)
		if err != nil {
			return err
		}

		if i%4 == 0 {
			// Weekly recurring training block.
			_, err := tx.Exec(ctx, `
				INSERT INTO time_off (id, staff_id, start_datetime, end_datetime, type, status, is_all_day, recurrence_rule)
				VALUES ($1, $2, $3, $4, 'training', 'approved', FALSE, 'FREQ=WEEKLY;COUNT=12')
			`, uuid.New(), staffID,
				time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, time.UTC),
				time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC))
			if err != nil {
				return err
			}
		}

		if i%3 == 1 {
			// Opens an otherwise closed Sunday for one staff member.
			sunday := now.AddDate(0, 0, int((7-now.Weekday())%7)+7)
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_overrides (id, staff_id, override_type, start_datetime, end_datetime, is_active, allow_new_bookings)
				VALUES ($1, $2, 'custom_hours', $3, $4, TRUE, TRUE)
			`, uuid.New(), staffID,
				time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 10, 0, 0, 0, time.UTC),
				time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 14, 0, 0, 0, time.UTC))
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("time off and overrides seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, staffIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	statuses := []string{"confirmed", "confirmed", "confirmed", "tentative", "completed", "cancelled"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for i := 0; i < count; i++ {
		staffID := staffIDs[gofakeit.Number(0, len(staffIDs)-1)]
		day := now.AddDate(0, 0, gofakeit.Number(1, 14))
		start := time.Date(day.Year(), day.Month(), day.Day(), gofakeit.Number(9, 16), 15*gofakeit.Number(0, 3), 0, 0, time.UTC)
		duration := time.Duration(15*gofakeit.Number(2, 6)) * time.Minute
		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, staff_id, start_datetime, end_datetime, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, uuid.New(), staffID, start, start.Add(duration), status)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("appointments seeded")
	return nil
}
