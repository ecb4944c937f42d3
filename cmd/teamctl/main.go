// cmd/teamctl - administrative CLI for the hackmate team service
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hackmate/config"
	"hackmate/database"
	"hackmate/middleware"
	"hackmate/models"
	"hackmate/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "teamctl",
		Short:   "Administer the hackmate team service",
		Version: version,
	}

	root.AddCommand(migrateCmd(), seedCmd(), tokenCmd(), teamCmd())
	return root
}

// withDB opens the configured database, runs fn and closes the connection.
func withDB(fn func(db *gorm.DB, cfg *config.Config) error) error {
	cfg := config.Load()
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(db, cfg)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *gorm.DB, _ *config.Config) error {
				if err := database.RunMigrations(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

// seedFile is the YAML layout read by seed-hackathons.
type seedFile struct {
	Hackathons []seedHackathon `yaml:"hackathons"`
}

type seedHackathon struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Location    string   `yaml:"location"`
	Website     string   `yaml:"website"`
	StartDate   string   `yaml:"startDate"`
	EndDate     string   `yaml:"endDate"`
	Tracks      []string `yaml:"tracks"`
}

// parseSeed decodes a seed file. Dates are YYYY-MM-DD or RFC 3339.
func parseSeed(r io.Reader) ([]models.Hackathon, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	out := make([]models.Hackathon, 0, len(file.Hackathons))
	for i, h := range file.Hackathons {
		start, err := parseDate(h.StartDate)
		if err != nil {
			return nil, fmt.Errorf("hackathon %d (%s): startDate: %w", i, h.ID, err)
		}
		end, err := parseDate(h.EndDate)
		if err != nil {
			return nil, fmt.Errorf("hackathon %d (%s): endDate: %w", i, h.ID, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("hackathon %d (%s): endDate before startDate", i, h.ID)
		}

		tracks := h.Tracks
		if tracks == nil {
			tracks = []string{}
		}
		out = append(out, models.Hackathon{
			ID:          h.ID,
			Name:        h.Name,
			Description: h.Description,
			Location:    h.Location,
			Website:     h.Website,
			StartDate:   start,
			EndDate:     end,
			Tracks:      tracks,
		})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-hackathons <file.yaml>",
		Short: "Insert or update hackathons from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			hackathons, err := parseSeed(f)
			if err != nil {
				return err
			}

			return withDB(func(db *gorm.DB, cfg *config.Config) error {
				svc := services.NewHackathonService(db)

				ctx := cmd.Context()
				for i := range hackathons {
					if err := svc.UpsertHackathon(ctx, &hackathons[i]); err != nil {
						return fmt.Errorf("upsert %s: %w", hackathons[i].ID, err)
					}
				}

				// Cached copies would otherwise serve the old dates until they expire.
				if rdb, err := database.ConnectRedis(cfg.RedisURL); err == nil && rdb != nil {
					cache := services.NewCachedHackathons(svc, rdb, cfg.HackathonCacheTTL)
					for _, h := range hackathons {
						_ = cache.Invalidate(ctx, h.ID)
					}
					rdb.Close()
				}

				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d hackathons\n", len(hackathons))
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		name   string
		avatar string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an HS256 token signed with JWT_SECRET (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if len(secret) < 32 {
				return errors.New("JWT_SECRET must be set and at least 32 characters long")
			}

			token, err := middleware.IssueToken(secret, middleware.Identity{
				UserID: args[0],
				Name:   name,
				Avatar: avatar,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Display name claim")
	f.StringVar(&avatar, "avatar", "", "Picture claim")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func teamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team <code>",
		Short: "Print the team holding a share code as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *gorm.DB, _ *config.Config) error {
				teams := services.NewTeamService(db, services.NewHackathonService(db))
				team, err := teams.GetTeamByCode(context.Background(), args[0])
				if err != nil {
					return err
				}
				if team == nil {
					return fmt.Errorf("no team with code %s", services.NormalizeTeamCode(args[0]))
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(team)
			})
		},
	}
}
