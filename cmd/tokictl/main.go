// Command tokictl is a client for the toki HTTP service: day, range, and
// sekki lookups against predefined or custom locations, with table, JSON,
// or YAML output.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hsato/toki/record"
)

var (
	serverAddress string
	outputFormat  string
	timeout       time.Duration
)

type locationPreset struct {
	Lat  float64
	Lon  float64
	Name string
}

var locationPresets = map[string]locationPreset{
	"tokyo":   {35.681236, 139.767125, "Tokyo, Japan"},
	"osaka":   {34.6937, 135.5023, "Osaka, Japan"},
	"kyoto":   {35.0116, 135.7681, "Kyoto, Japan"},
	"sapporo": {43.0618, 141.3545, "Sapporo, Japan"},
	"naha":    {26.2124, 127.6809, "Naha, Japan"},
	"nyc":     {40.7128, -74.0060, "New York, USA"},
	"london":  {51.5074, -0.1278, "London, UK"},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "tokictl",
		Short: "Client for the Japanese lunisolar calendar service",
		Long: `tokictl queries a running toki-server for lunisolar dates, solar terms,
and rokuyo assignments.

Examples:
  # Today's record for Tokyo
  tokictl day -l tokyo

  # A range of days in JSON
  tokictl range --start 2017-06-01 --end 2017-06-30 -o json

  # The solar terms falling in a range
  tokictl sekki --start 2017-01-01 --end 2017-12-31`,
	}

	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "http://localhost:8080", "toki-server base URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(createDayCommand())
	rootCmd.AddCommand(createRangeCommand())
	rootCmd.AddCommand(createSekkiCommand())
	rootCmd.AddCommand(createLocationsCommand())
	rootCmd.AddCommand(createHealthCommand())
	rootCmd.AddCommand(createVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createDayCommand() *cobra.Command {
	var (
		date     string
		lat, lon float64
		location string
	)

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Get the lunisolar record for a single day",
		Example: `  tokictl day -l tokyo
  tokictl day -d 2017-06-24 -l tokyo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon = resolveLocation(location, lat, lon)
			return runDayCommand(date, lat, lon)
		},
	}

	today := time.Now().Format("2006-01-02")
	cmd.Flags().StringVarP(&date, "date", "d", today, "Date in YYYY-MM-DD format")
	cmd.Flags().Float64Var(&lat, "lat", locationPresets["tokyo"].Lat, "Latitude (-90 to 90)")
	cmd.Flags().Float64Var(&lon, "lon", locationPresets["tokyo"].Lon, "Longitude (-180 to 180)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "Predefined location (see 'locations')")

	return cmd
}

func createRangeCommand() *cobra.Command {
	var (
		start, end string
		lat, lon   float64
		location   string
	)

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Get lunisolar records for a range of days",
		Example: `  tokictl range --start 2017-06-01 --end 2017-06-30 -l tokyo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon = resolveLocation(location, lat, lon)
			return runRangeCommand(start, end, lat, lon, false)
		},
	}

	today := time.Now().Format("2006-01-02")
	weekOut := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	cmd.Flags().StringVar(&start, "start", today, "Start date in YYYY-MM-DD format")
	cmd.Flags().StringVar(&end, "end", weekOut, "End date in YYYY-MM-DD format")
	cmd.Flags().Float64Var(&lat, "lat", locationPresets["tokyo"].Lat, "Latitude (-90 to 90)")
	cmd.Flags().Float64Var(&lon, "lon", locationPresets["tokyo"].Lon, "Longitude (-180 to 180)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "Predefined location (see 'locations')")

	return cmd
}

func createSekkiCommand() *cobra.Command {
	var (
		start, end string
		lat, lon   float64
		location   string
	)

	cmd := &cobra.Command{
		Use:   "sekki",
		Short: "List the solar terms (sekki) falling within a range",
		Example: `  tokictl sekki --start 2017-01-01 --end 2017-12-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon = resolveLocation(location, lat, lon)
			return runRangeCommand(start, end, lat, lon, true)
		},
	}

	today := time.Now().Format("2006-01-02")
	yearOut := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	cmd.Flags().StringVar(&start, "start", today, "Start date in YYYY-MM-DD format")
	cmd.Flags().StringVar(&end, "end", yearOut, "End date in YYYY-MM-DD format")
	cmd.Flags().Float64Var(&lat, "lat", locationPresets["tokyo"].Lat, "Latitude (-90 to 90)")
	cmd.Flags().Float64Var(&lon, "lon", locationPresets["tokyo"].Lon, "Longitude (-180 to 180)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "Predefined location (see 'locations')")

	return cmd
}

func createLocationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List available predefined locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-10s %-20s %-12s %-12s\n", "CODE", "NAME", "LAT", "LON")
			for code, preset := range locationPresets {
				fmt.Printf("%-10s %-20s %-12.4f %-12.4f\n", code, preset.Name, preset.Lat, preset.Lon)
			}
			return nil
		},
	}
}

func createHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check toki-server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(strings.TrimRight(serverAddress, "/") + "/v1/health")
			if err != nil {
				return fmt.Errorf("failed to reach server: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
			}

			fmt.Println(string(body))
			return nil
		},
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tokictl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{"cli_version": "1.0.0"}
			switch outputFormat {
			case "json":
				data, _ := json.MarshalIndent(info, "", "  ")
				fmt.Println(string(data))
			case "yaml":
				data, _ := yaml.Marshal(info)
				fmt.Print(string(data))
			default:
				fmt.Printf("tokictl %s\n", info["cli_version"])
			}
			return nil
		},
	}
}

func resolveLocation(location string, lat, lon float64) (float64, float64) {
	if location == "" {
		return lat, lon
	}
	preset, ok := locationPresets[location]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown location %q, falling back to provided coordinates\n", location)
		return lat, lon
	}
	return preset.Lat, preset.Lon
}

func runDayCommand(date string, lat, lon float64) error {
	url := fmt.Sprintf("%s/v1/days/%s?lat=%f&lon=%f", strings.TrimRight(serverAddress, "/"), date, lat, lon)

	var day record.DayRecord
	if err := fetchJSON(url, &day); err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return printJSON(day)
	case "yaml":
		return printYAML(day)
	default:
		return printDayTable(day)
	}
}

func runRangeCommand(start, end string, lat, lon float64, sekkiOnly bool) error {
	url := fmt.Sprintf("%s/v1/ranges/%s/%s?lat=%f&lon=%f", strings.TrimRight(serverAddress, "/"), start, end, lat, lon)

	var rng record.RangeRecord
	if err := fetchJSON(url, &rng); err != nil {
		return err
	}

	if sekkiOnly {
		switch outputFormat {
		case "json":
			return printJSON(rng.Events.Sekki)
		case "yaml":
			return printYAML(rng.Events.Sekki)
		default:
			return printSekkiTable(rng.Events.Sekki)
		}
	}

	switch outputFormat {
	case "json":
		return printJSON(rng)
	case "yaml":
		return printYAML(rng)
	default:
		return printRangeTable(rng)
	}
}

func fetchJSON(url string, dst interface{}) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func printDayTable(day record.DayRecord) error {
	fmt.Printf("Date: %s\n", day.Date)
	fmt.Printf("Lunisolar: %s year %d, %s (day %d)\n", day.Lunisolar.MonthName, day.Lunisolar.Year, day.Lunisolar.Label, day.Lunisolar.Day)
	fmt.Printf("Rokuyo: %s\n", day.Rokuyo)
	if day.Sekki != nil && day.Sekki.Primary != nil {
		fmt.Printf("Sekki: %s (%d°) at %s\n", day.Sekki.Primary.Name, day.Sekki.Primary.Degree, day.Sekki.Primary.AtJST)
	}
	fmt.Printf("Moon age: %.2f days\n", day.Astronomy.MoonAge)
	if day.Astronomy.Sunrise != nil {
		fmt.Printf("Sunrise: %s\n", *day.Astronomy.Sunrise)
	}
	if day.Astronomy.Sunset != nil {
		fmt.Printf("Sunset: %s\n", *day.Astronomy.Sunset)
	}
	return nil
}

func printRangeTable(rng record.RangeRecord) error {
	fmt.Printf("Range: %s to %s\n", rng.Range.Start, rng.Range.End)
	fmt.Printf("%-12s %-10s %-8s %-10s\n", "DATE", "LUNISOLAR", "ROKUYO", "SEKKI")
	for _, day := range rng.Days {
		sekki := ""
		if day.Sekki != nil && day.Sekki.Primary != nil {
			sekki = day.Sekki.Primary.Name
		}
		fmt.Printf("%-12s %-10s %-8s %-10s\n", day.Date, day.Lunisolar.Label, day.Rokuyo, sekki)
	}
	return nil
}

func printSekkiTable(events []record.SekkiEvent) error {
	fmt.Printf("%-10s %-6s %-30s\n", "NAME", "DEG", "AT (JST)")
	for _, e := range events {
		fmt.Printf("%-10s %-6d %-30s\n", e.Name, e.Degree, e.AtJST)
	}
	return nil
}
