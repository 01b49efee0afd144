package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedReligions  = []string{"Hindu", "Muslim", "Christian", "Sikh", "Jain", "Buddhist"}
	seedEducations = []string{"High School", "Bachelors", "Masters", "Doctorate"}
	seedMaritals   = []string{"Single", "Divorced", "Widowed"}
	seedCities     = []string{"Pune", "Mumbai", "Delhi", "Bengaluru", "Hyderabad", "Chennai", "Kolkata"}
	seedCareers    = []string{"IT", "Medicine", "Finance", "Education", "Government", "Business"}
)

// SeedTestData resets the database and populates it with a demo member base.
//
// Behavior:
//  1. Clears users, profiles, preferences, connection requests and views.
//  2. Creates 60 members (30 male, 30 female), ~25% premium, with hashed
//     passwords, full profiles and partner preferences.
//  3. Sprinkles connection requests and profile views so the scorer's
//     exclusion paths have data to chew on.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"profile_views", "connection_requests", "partner_preferences", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	const total = 60

	for i := 1; i <= total; i++ {
		gender := "male"
		if i > total/2 {
			gender = "female"
		}

		user := User{
			Email:        fmt.Sprintf("member%d@example.com", i),
			PasswordHash: string(hash),
			Active:       r.Intn(100) < 90,
			Premium:      r.Intn(100) < 25,
			Gender:       gender,
			LastLoginAt:  now.Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		age := 21 + r.Intn(20)
		profile := Profile{
			UserID:         user.ID,
			FullName:       fmt.Sprintf("Member %d", i),
			DateOfBirth:    now.AddDate(-age, 0, -r.Intn(364)),
			Religion:       seedReligions[r.Intn(len(seedReligions))],
			EducationLevel: seedEducations[r.Intn(len(seedEducations))],
			MaritalStatus:  seedMaritals[r.Intn(len(seedMaritals))],
			City:           seedCities[r.Intn(len(seedCities))],
			CareerSector:   seedCareers[r.Intn(len(seedCareers))],
			PhotoURL:       fmt.Sprintf("https://cdn.rishtahub.example/photos/%d.jpg", user.ID),
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		prefGender := "male"
		if gender == "male" {
			prefGender = "female"
		}
		pref := PartnerPreference{
			UserID:          user.ID,
			PreferredGender: prefGender,
			MinAge:          20,
			MaxAge:          20 + 10 + r.Intn(15),
			Religion:        pickOrNoPreference(r, seedReligions),
			EducationLevel:  pickOrNoPreference(r, seedEducations),
			MaritalStatus:   pickOrNoPreference(r, seedMaritals),
			City:            pickOrNoPreference(r, seedCities),
			CareerSector:    pickOrNoPreference(r, seedCareers),
		}
		if err := db.Create(&pref).Error; err != nil {
			return fmt.Errorf("failed to seed preference: %w", err)
		}
	}
	log.Printf("Seeded %d members.", total)

	// Connection requests and profile views between opposite-gender pairs.
	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		for j := 0; j < 3; j++ {
			other := users[r.Intn(len(users))]
			if other.ID == u.ID || other.Gender == u.Gender {
				continue
			}

			if r.Intn(2) == 0 {
				req := ConnectionRequest{
					SenderID:   u.ID,
					ReceiverID: other.ID,
					Status:     []string{"pending", "accepted", "declined"}[r.Intn(3)],
				}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
				}).Create(&req).Error; err != nil {
					return fmt.Errorf("failed to seed connection request: %w", err)
				}
			} else {
				view := ProfileView{ViewerID: u.ID, ViewedID: other.ID}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&view).Error; err != nil {
					return fmt.Errorf("failed to seed profile view: %w", err)
				}
			}
		}
	}

	return nil
}

func pickOrNoPreference(r *rand.Rand, options []string) string {
	if r.Intn(100) < 30 {
		return NoPreference
	}
	return options[r.Intn(len(options))]
}
