package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/domain"
	"studiobooking/internal/modules/auth"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/modules/notification"
	"studiobooking/internal/modules/payment"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("logger: ", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}
	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed: ", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "payments", "bookings", "equipment", "studios", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	studios := repository.NewStudioRepository(db)
	bookings := repository.NewBookingRepository(db)
	notifications := repository.NewNotificationRepository(db)
	tx := repository.NewTransactor(db)
	locks := keylock.NewMemory()

	emitter := notification.NewEmitter(notifications, zl, 1, 64)
	defer emitter.Close()

	// ================== USERS ==================
	log.Println("Creating users...")
	mkUser := func(name, email, password string, role domain.UserRole) *domain.User {
		hash, err := auth.HashPassword(password, bcrypt.DefaultCost)
		if err != nil {
			log.Fatal(err)
		}
		u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, IsActive: true}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", email, err)
		}
		return u
	}
	mkUser("Admin", "admin@studiobooking.local", "admin12345", domain.RoleAdmin)
	staffUser := mkUser("Front Desk", "staff@studiobooking.local", "staff12345", domain.RoleStaff)
	clients := make([]*domain.User, 0, 3)
	for i := 1; i <= 3; i++ {
		clients = append(clients, mkUser(fmt.Sprintf("Client %d", i), fmt.Sprintf("client%d@studiobooking.local", i), "client12345", domain.RoleClient))
	}

	// ================== STUDIOS ==================
	log.Println("Creating studios...")
	seedStudios := []domain.Studio{
		{Name: "Studio A", Description: "Tracking room with a Neve console", HourlyRate: 75, SizeSqft: 600, Capacity: 8, Features: []string{"isolation-booth", "grand-piano"}},
		{Name: "Studio B", Description: "Mix room", HourlyRate: 50, SizeSqft: 300, Capacity: 4, Features: []string{"atmos"}},
		{Name: "Podcast Room", Description: "Four-mic podcast setup", HourlyRate: 30, SizeSqft: 150, Capacity: 4, Features: []string{"video"}},
	}
	for i := range seedStudios {
		s := &seedStudios[i]
		s.IsActive = true
		if err := studios.Create(ctx, s); err != nil {
			log.Fatalf("create studio %s: %v", s.Name, err)
		}
		eq := &domain.Equipment{StudioID: s.ID, Name: "Shure SM7B", Category: "microphone", Brand: "Shure", Model: "SM7B", Quantity: 2, Status: domain.EquipmentAvailable}
		if err := studios.AddEquipment(ctx, eq); err != nil {
			log.Fatalf("add equipment: %v", err)
		}
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")
	bookingSvc := booking.NewService(bookings, studios, tx, locks, emitter, zl)
	paymentSvc := payment.NewService(repository.NewPaymentRepository(db), bookings, tx, locks, emitter, payment.ModeSum, zl)
	staff := domain.Actor{UserID: staffUser.ID, Role: staffUser.Role}

	day := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	for i, c := range clients {
		actor := domain.Actor{UserID: c.ID, Role: c.Role}
		s := seedStudios[i%len(seedStudios)]
		start := day.Add(time.Duration(10+2*i) * time.Hour)

		b, err := bookingSvc.CreateBooking(ctx, actor, booking.CreateInput{
			StudioID:  s.ID,
			StartTime: start,
			EndTime:   start.Add(2 * time.Hour),
			Notes:     fmt.Sprintf("Seed booking %d", i+1),
		})
		if err != nil {
			log.Fatalf("create booking: %v", err)
		}
		if i == 0 {
			if _, err := bookingSvc.ConfirmBooking(ctx, b.ID, staff); err != nil {
				log.Fatalf("confirm booking: %v", err)
			}
			if _, err := paymentSvc.ApplyPayment(ctx, actor, b.ID, payment.ApplyInput{Amount: b.TotalPrice, Method: "card"}); err != nil {
				log.Fatalf("apply payment: %v", err)
			}
		}
	}

	log.Println("Seed completed. Test accounts:")
	log.Println("Admin: admin@studiobooking.local / admin12345")
	log.Println("Staff: staff@studiobooking.local / staff12345")
	log.Println("Clients: client1..3@studiobooking.local / client12345")
}
