package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/tablastic/tablastic"
	"github.com/tablastic/tablastic/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		addrs    string
		username string
		password string
		timeout  time.Duration
	)
	flag.StringVar(&addrs, "es", envOr("ELASTICSEARCH_ADDRESSES", "http://localhost:9200"),
		"Comma-separated engine addresses")
	flag.StringVar(&username, "user", os.Getenv("ELASTICSEARCH_USERNAME"), "Engine username (optional)")
	flag.StringVar(&password, "pass", os.Getenv("ELASTICSEARCH_PASSWORD"), "Engine password (optional)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	flag.Parse()

	client, err := tablastic.New(
		tablastic.WithAddresses(strings.Split(addrs, ",")...),
		tablastic.WithBasicAuth(username, password),
		tablastic.WithTimeout(timeout),
	)
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}

	p := tea.NewProgram(tui.New(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
