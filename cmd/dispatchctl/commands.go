package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bloodconnect/backend/internal/adapters/database"
	"github.com/bloodconnect/backend/internal/app"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/utils"
)

func newGeocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <location>",
		Short: "Resolve a free-text location to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *app.Container) error {
				coordinate, err := c.Resolver.Resolve(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), coordinate)
			})
		},
	}
}

func newNearestCmd() *cobra.Command {
	var (
		lat, lon float64
		from     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Find the nearest eligible blood bank",
		RunE: func(cmd *cobra.Command, _ []string) error {
			category = utils.NormalizeBloodGroup(category)
			if !utils.IsValidBloodGroup(category) {
				return fmt.Errorf("invalid blood group %q", category)
			}
			return withContainer(cmd, func(c *app.Container) error {
				origin := entities.Coordinate{Latitude: lat, Longitude: lon}
				if from != "" {
					resolved, err := c.Resolver.Resolve(cmd.Context(), from)
					if err != nil {
						return err
					}
					origin = resolved
				}

				match, err := c.Matcher.FindNearest(cmd.Context(), origin, category)
				if err != nil {
					return err
				}
				if match == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no facility found within 10km")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) at %s\n",
					match.Facility.Name, match.Facility.Subregion, utils.FormatDistance(match.DistanceMeters))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "origin longitude")
	cmd.Flags().StringVar(&from, "from", "", "origin as free text, overrides --lat/--lon")
	cmd.Flags().StringVar(&category, "category", "", "required blood group")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newRouteCmd() *cobra.Command {
	var fromLat, fromLon, toLat, toLon float64
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Estimate car, bike and air travel between two points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(c *app.Container) error {
				plan, err := c.Planner.Plan(cmd.Context(),
					entities.Coordinate{Latitude: fromLat, Longitude: fromLon},
					entities.Coordinate{Latitude: toLat, Longitude: toLon},
				)
				if err != nil {
					return err
				}
				summary := services.Summarize(plan)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "car:  %s, %s\n", summary.CarDistance, summary.CarDuration)
				fmt.Fprintf(out, "bike: %s, %s\n", summary.BikeDistance, summary.BikeDuration)
				fmt.Fprintf(out, "air:  %s, %s\n", summary.AirDistance, summary.AirDuration)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&fromLat, "from-lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&fromLon, "from-lon", 0, "origin longitude")
	cmd.Flags().Float64Var(&toLat, "to-lat", 0, "destination latitude")
	cmd.Flags().Float64Var(&toLon, "to-lon", 0, "destination longitude")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		steps   int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := observability.ComponentLogger("migrate")
			if err := database.Migrate(cfg.Database.DatabaseURL(), steps, verbose, logger); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps to apply, negative to roll back, 0 for all")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every migration step")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the JSON facility directory into PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			if file == "" {
				file = cfg.Facilities.DirectoryPath
			}

			directory, err := database.LoadJSONFacilityDirectory(file)
			if err != nil {
				return err
			}
			facilities, err := directory.List(cmd.Context())
			if err != nil {
				return err
			}

			client, err := postgres.NewClient(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := database.UpsertFacilities(cmd.Context(), client, facilities)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s blood banks from %s\n", humanize.Comma(n), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "directory file, defaults to FACILITY_DIRECTORY_PATH")
	return cmd
}
