// seed_rfp.go inserts a sample RFP with supplier responses and optionally asks
// the scoring service to score it.
//
// Usage:
//
//	go run scripts/seed_rfp.go -db postgres://localhost/tender -fixture rfp.yaml -request nats://localhost:4222
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	Title        string            `yaml:"title"`
	Settings     map[string]any    `yaml:"settings"`
	Requirements []requirement     `yaml:"requirements"`
	Suppliers    []supplierFixture `yaml:"suppliers"`
}

type requirement struct {
	ID           string  `yaml:"id" json:"id"`
	QuestionText string  `yaml:"question_text" json:"question_text"`
	ScoringType  string  `yaml:"scoring_type" json:"scoring_type"`
	Weight       float64 `yaml:"weight" json:"weight"`
	MustHave     bool    `yaml:"must_have" json:"must_have"`
}

type supplierFixture struct {
	Name    string            `yaml:"name"`
	Answers map[string]string `yaml:"answers"`
}

var sample = fixture{
	Title: "Managed network services",
	Settings: map[string]any{
		"ai_enabled":              true,
		"must_have_fail_behavior": "zero_score",
	},
	Requirements: []requirement{
		{ID: "price", QuestionText: "Annual price score (0-100)", ScoringType: "numeric", Weight: 40},
		{ID: "iso27001", QuestionText: "Do you hold ISO 27001 certification?", ScoringType: "pass_fail", Weight: 30, MustHave: true},
		{ID: "support", QuestionText: "Describe your 24/7 support model.", ScoringType: "qualitative", Weight: 20},
		{ID: "sla", QuestionText: "Rate your uptime SLA commitment (0-100)", ScoringType: "weighted", Weight: 10},
	},
	Suppliers: []supplierFixture{
		{Name: "Acme Networks", Answers: map[string]string{
			"price": "82", "iso27001": "Yes, certified since 2019", "sla": "99.9",
			"support": "<p>Follow-the-sun NOC with a named engineer and 15 minute P1 response.</p>",
		}},
		{Name: "Globex", Answers: map[string]string{
			"price": "$1,250", "iso27001": "N/A", "sla": "95",
			"support": "Business hours email support.",
		}},
		{Name: "Initech", Answers: map[string]string{
			"price": "not disclosed", "iso27001": "In progress", "support": "",
		}},
	},
}

func main() {
	dbURL := flag.String("db", os.Getenv("TENDER_DATABASE_URL"), "postgres connection URL")
	fixturePath := flag.String("fixture", "", "YAML fixture; the built-in sample is used when empty")
	natsURL := flag.String("request", "", "publish a score request to this NATS URL after seeding")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("-db or TENDER_DATABASE_URL is required")
	}

	fx := sample
	if *fixturePath != "" {
		data, err := os.ReadFile(*fixturePath)
		if err != nil {
			log.Fatalf("read fixture: %v", err)
		}
		fx = fixture{}
		if err := yaml.Unmarshal(data, &fx); err != nil {
			log.Fatalf("parse fixture: %v", err)
		}
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, *dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close(ctx)

	catalogJSON, err := json.Marshal(fx.Requirements)
	if err != nil {
		log.Fatalf("encode catalog: %v", err)
	}
	var settingsJSON []byte
	if len(fx.Settings) > 0 {
		if settingsJSON, err = json.Marshal(fx.Settings); err != nil {
			log.Fatalf("encode settings: %v", err)
		}
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rfpID uuid.UUID
	if err := tx.QueryRow(ctx,
		`INSERT INTO rfps (title, catalog, settings) VALUES ($1, $2, $3) RETURNING rfp_id`,
		fx.Title, catalogJSON, settingsJSON,
	).Scan(&rfpID); err != nil {
		log.Fatalf("insert rfp: %v", err)
	}

	for _, s := range fx.Suppliers {
		answersJSON, err := json.Marshal(s.Answers)
		if err != nil {
			log.Fatalf("encode answers for %s: %v", s.Name, err)
		}
		var responseID uuid.UUID
		if err := tx.QueryRow(ctx,
			`INSERT INTO supplier_responses (rfp_id, supplier_id, supplier_name, answers) VALUES ($1, $2, $3, $4) RETURNING response_id`,
			rfpID, uuid.New(), s.Name, answersJSON,
		).Scan(&responseID); err != nil {
			log.Fatalf("insert response for %s: %v", s.Name, err)
		}
		log.Printf("  %s -> response %s", s.Name, responseID)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}
	log.Printf("seeded rfp %s with %d requirements and %d responses", rfpID, len(fx.Requirements), len(fx.Suppliers))

	if *natsURL == "" {
		return
	}
	nc, err := nats.Connect(*natsURL, nats.Name("tender-seed"))
	if err != nil {
		log.Fatalf("connect nats: %v", err)
	}
	defer nc.Close()

	payload, _ := json.Marshal(map[string]string{"rfp_id": rfpID.String(), "requested_by": "seed"})
	if err := nc.Publish("rfp.scoring.request", payload); err != nil {
		log.Fatalf("publish score request: %v", err)
	}
	if err := nc.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("requested scoring for rfp %s", rfpID)
}
