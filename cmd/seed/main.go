// Command seed fills the Warbler database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/NoahAppelbaum/warbler/internal/bootstrap"
	"github.com/NoahAppelbaum/warbler/internal/config"
	"github.com/NoahAppelbaum/warbler/internal/database"
	"github.com/NoahAppelbaum/warbler/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	messages := flag.Int("messages", 10, "Messages per user")
	follows := flag.Int("follows", 8, "Accounts each user follows")
	likes := flag.Int("likes", 15, "Messages each user likes")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d messages each, clean=%v\n", *numUsers, *messages, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	bootstrap.InitLogging(cfg)

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	summary, err := seed.Seed(db, seed.Options{
		NumUsers:        *numUsers,
		MessagesPerUser: *messages,
		FollowsPerUser:  *follows,
		LikesPerUser:    *likes,
		ShouldClean:     *shouldClean,
		Factory:         seed.FactoryOptions{DryRun: *dryRun, MaxDays: 60},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d messages, %d follows, %d likes", summary.Users, summary.Messages, summary.Follows, summary.Likes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
