package seeders

import (
	"log"

	"github.com/cradoe/gopass"
	"github.com/lib/pq"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/models"
)

// seedAdminAccount creates the first administrator account so the admin
// panel is reachable on a fresh database. The account is skipped when the
// credentials are not configured or the email already exists.
func (seeder *Seeder) seedAdminAccount() {
	email := seeder.Config.Admin.SeedEmail
	password := seeder.Config.Admin.SeedPassword

	if email == "" || password == "" {
		return
	}

	userRepo := seeder.DB.User()

	_, found, err := userRepo.GetByEmail(email)
	if err != nil {
		log.Fatalf("Failed to look up admin account: %v", err)
	}
	if found {
		return
	}

	hashedPassword, err := gopass.Hash(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	verificationCode, err := helper.GenerateRandomCode(16)
	if err != nil {
		log.Fatalf("Failed to generate verification code: %v", err)
	}

	admin := &models.User{
		FirstName:        "Account",
		LastName:         "Administrator",
		Email:            email,
		HashedPassword:   hashedPassword,
		Permissions:      pq.StringArray{models.PermissionDeposit},
		IsAdmin:          true,
		VerificationCode: verificationCode,
	}

	id, err := userRepo.Insert(admin, nil)
	if err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Admin accounts do not go through the email verification flow.
	err = userRepo.MarkVerified(id, nil)
	if err != nil {
		log.Fatalf("Failed to verify admin account: %v", err)
	}

	log.Printf("Seeded admin account %s", email)
}
