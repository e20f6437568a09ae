// Command main seeds the database with demo tenants, users, and posts.
package main

import (
	"flag"
	"log"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	shouldClean := flag.Bool("clean", false, "Delete existing rows before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		for _, model := range []any{&models.Upvote{}, &models.Post{}, &models.User{}, &models.Tenant{}} {
			if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
		}
		log.Println("Cleared existing data")
	}

	tenant := models.Tenant{CompanyName: "Acme", Slug: "acme"}
	if err := db.FirstOrCreate(&tenant, models.Tenant{Slug: "acme"}).Error; err != nil {
		log.Fatalf("Seed tenant failed: %v", err)
	}

	admin := seedUser(db, "admin@acme.io", "Password123", models.RoleAdmin, tenant.ID)
	alice := seedUser(db, "alice@acme.io", "Password123", models.RoleUser, tenant.ID)

	posts := []models.Post{
		{Title: "Add dark mode", Description: "The dashboard is blinding at night", Status: models.StatusPlanned, UserID: alice.ID, TenantID: tenant.ID},
		{Title: "CSV export", Description: "Export feedback reports to CSV", Status: models.StatusInProgress, UserID: alice.ID, TenantID: tenant.ID},
		{Title: "Slack integration", Description: "Notify a channel on new feedback", Status: models.StatusCompleted, UserID: admin.ID, TenantID: tenant.ID},
	}
	for i := range posts {
		if err := db.Where(models.Post{Title: posts[i].Title, TenantID: tenant.ID}).
			FirstOrCreate(&posts[i]).Error; err != nil {
			log.Fatalf("Seed post failed: %v", err)
		}
	}

	log.Printf("Seeded tenant %q with %d users and %d posts", tenant.Slug, 2, len(posts))
}

func seedUser(db *gorm.DB, email, password string, role models.Role, tenantID uint) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Hash password failed: %v", err)
	}

	user := models.User{Email: email, Password: string(hashed), Role: role, TenantID: tenantID}
	if err := db.Where(models.User{Email: email}).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("Seed user %s failed: %v", email, err)
	}
	return user
}
