package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"church-attendance-backend/internal/config"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/store"
	"church-attendance-backend/internal/store/firebase"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Seed file structures

type TeamData struct {
	Name   string `yaml:"name"`
	Church string `yaml:"church"`
}

type MemberData struct {
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Church    string   `yaml:"church"`
	Joined    string   `yaml:"joined,omitempty"`
	Teams     []string `yaml:"teams,omitempty"` // team names, resolved within the same church
	Title     string   `yaml:"title,omitempty"`
	Phone     string   `yaml:"phone,omitempty"`
	Email     string   `yaml:"email,omitempty"`
	Gender    string   `yaml:"gender,omitempty"`
}

type AttendanceData struct {
	Date    string   `yaml:"date"`
	Church  string   `yaml:"church"`
	Present []string `yaml:"present"` // member full names
}

type SeedFile struct {
	Teams      []TeamData       `yaml:"teams"`
	Members    []MemberData     `yaml:"members"`
	Attendance []AttendanceData `yaml:"attendance"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	seedPath := "scripts/data/seed.yaml"
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", seedPath, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	ctx := context.Background()
	st, err := firebase.New(ctx, firebase.Options{
		DatabaseURL:     cfg.FirebaseDatabaseURL,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		RequestTimeout:  cfg.StoreTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer st.Close()

	if err := loadSeed(ctx, st, &seed); err != nil {
		log.Fatalf("Seed load failed: %v", err)
	}
	fmt.Printf("Loaded %d teams, %d members, %d attendance days\n",
		len(seed.Teams), len(seed.Members), len(seed.Attendance))
}

func loadSeed(ctx context.Context, st store.Store, seed *SeedFile) error {
	// Teams first so member team names can be resolved to ids
	teamIDs := make(map[string]string) // church + "/" + name -> id
	for _, t := range seed.Teams {
		id, err := st.Push(ctx, store.TeamsPath, &models.Team{
			Name:   t.Name,
			Church: t.Church,
		})
		if err != nil {
			return fmt.Errorf("creating team %q: %w", t.Name, err)
		}
		teamIDs[t.Church+"/"+t.Name] = id
	}

	memberIDs := make(map[string]string) // church + "/" + full name -> id
	for _, m := range seed.Members {
		member := &models.Member{
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Church:    m.Church,
			Joined:    m.Joined,
			Teams:     models.TeamSet{},
			Title:     m.Title,
			Phone:     m.Phone,
			Email:     m.Email,
			Gender:    m.Gender,
		}
		for _, teamName := range m.Teams {
			id, ok := teamIDs[m.Church+"/"+teamName]
			if !ok {
				return fmt.Errorf("member %s %s references unknown team %q", m.FirstName, m.LastName, teamName)
			}
			member.Teams[id] = true
		}

		id, err := st.Push(ctx, store.MembersPath, member)
		if err != nil {
			return fmt.Errorf("creating member %s %s: %w", m.FirstName, m.LastName, err)
		}
		memberIDs[m.Church+"/"+member.Name()] = id
	}

	for _, day := range seed.Attendance {
		presence := make(map[string]interface{})
		for _, name := range day.Present {
			id, ok := memberIDs[day.Church+"/"+strings.TrimSpace(name)]
			if !ok {
				return fmt.Errorf("attendance for %s references unknown member %q", day.Date, name)
			}
			presence[id] = true
		}
		if err := st.Set(ctx, store.DayPath(day.Date), presence); err != nil {
			return fmt.Errorf("writing attendance for %s: %w", day.Date, err)
		}
	}

	return nil
}
