// Copyright 2025 Certen Protocol
//
// ledgerctl is the command-line wrapper over internal/ledger named in
// SPEC_FULL.md §6. It operates on a chain snapshot file: each invocation
// loads the snapshot named by -state (or mines a fresh genesis block if
// none exists), runs one subcommand, and — for subcommands that mutate the
// chain — writes the result back out. Grounded on the teacher's main.go
// flag.String/flag.Bool + flag.Parse() CLI style, generalized from a single
// long-running flag set to a subcommand dispatch.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/certen/evidence-ledger/internal/artifact"
	"github.com/certen/evidence-ledger/internal/chainledger"
	"github.com/certen/evidence-ledger/internal/config"
	"github.com/certen/evidence-ledger/internal/hashutil"
	"github.com/certen/evidence-ledger/internal/ledger"
	"github.com/certen/evidence-ledger/internal/query"
	"github.com/certen/evidence-ledger/internal/snapshotstore"
)

// Exit codes per SPEC_FULL.md §6/§7.
const (
	exitOK                   = 0
	exitValidationFailure    = 1
	exitDependencyResolution = 2
	exitConsentDeclined      = 3
	exitMiningBudgetExceeded = 4
	exitInputParseError      = 5
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ledgerctl: ")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitInputParseError)
	}

	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	case "prove":
		err = runProve(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "ledgerctl: unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(exitInputParseError)
	}

	if err == nil {
		os.Exit(exitOK)
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, exitErr.err)
		os.Exit(exitErr.code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitValidationFailure)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ledgerctl - tamper-evident evidence ledger CLI

Usage:
  ledgerctl ingest   -state FILE -in FILE [-config FILE] [-out FILE] [-archive-dsn DSN] [-chain-id ID]
  ledgerctl validate -state FILE
  ledgerctl query    -state FILE [-case-id ID] [-tier TIER] [-type TYPE] [-content-hash HEX]
  ledgerctl prove    -state FILE -id ARTIFACT_ID
  ledgerctl restore  -out FILE -archive-dsn DSN [-chain-id ID]`)
}

// exitError pins a specific process exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// intakeArtifact is the JSON shape ledgerctl accepts on ingest, a thin
// surface over artifact.Artifact: raw "content" is hashed on the way in and
// never persisted, per hashutil.ContentHash's "content never enters the
// core" contract.
type intakeArtifact struct {
	ID                   string            `json:"id"`
	Content              string            `json:"content"`
	Statement            string            `json:"statement"`
	Type                 string            `json:"type"`
	Tier                 string            `json:"tier"`
	AuthenticationMethod string            `json:"authentication_method"`
	CaseID               string            `json:"case_id"`
	SubmittedBy          string            `json:"submitted_by"`
	CredibilityFactors   []string          `json:"credibility_factors"`
	Dependencies         []string          `json:"dependencies"`
	SealNumber           string            `json:"seal_number"`
	NotaryID             string            `json:"notary_id"`
	ParentDocumentID     string            `json:"parent_document_id"`
	OriginalDocumentID   string            `json:"original_document_id"`
	ReferencedArtifacts  []string          `json:"referenced_artifacts"`
	SupportingDocuments  []string          `json:"supporting_documents"`
	Custom               map[string]string `json:"custom"`
}

func (ia intakeArtifact) toArtifact() (*artifact.Artifact, error) {
	if ia.ID == "" {
		return nil, fmt.Errorf("intake artifact missing id")
	}
	if !artifact.Tier(ia.Tier).Valid() {
		return nil, fmt.Errorf("intake artifact %s: unknown tier %q", ia.ID, ia.Tier)
	}

	a := &artifact.Artifact{
		ID:                   ia.ID,
		ContentHash:          hashutil.ContentHash([]byte(ia.Content)),
		Statement:            ia.Statement,
		Type:                 artifact.Type(ia.Type),
		Tier:                 artifact.Tier(ia.Tier),
		AuthenticationMethod: artifact.AuthMethod(ia.AuthenticationMethod),
		CredibilityFactors:   ia.CredibilityFactors,
		CaseID:               ia.CaseID,
		Dependencies:         ia.Dependencies,
		SubmittedAt:          time.Now().UTC(),
		SubmittedBy:          ia.SubmittedBy,
		SealNumber:           ia.SealNumber,
		NotaryID:             ia.NotaryID,
	}
	a.Metadata.ParentDocumentID = ia.ParentDocumentID
	a.Metadata.OriginalDocumentID = ia.OriginalDocumentID
	a.Metadata.ReferencedArtifacts = ia.ReferencedArtifacts
	a.Metadata.SupportingDocuments = ia.SupportingDocuments
	a.Metadata.Custom = ia.Custom
	return a, nil
}

func loadOrCreateChain(stateFile string, cfg *config.Config) (*chainledger.Chain, error) {
	data, err := os.ReadFile(stateFile)
	if errors.Is(err, os.ErrNotExist) {
		ccfg := chainledger.DefaultConfig()
		ccfg.Difficulty = cfg.Difficulty
		ccfg.IterationCap = cfg.MiningIterationCap
		return chainledger.New(ccfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", stateFile, err)
	}
	return chainledger.ImportSnapshotJSON(data)
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	stateFile := fs.String("state", "", "chain snapshot file (created if absent)")
	inFile := fs.String("in", "", "JSON array of intake artifacts")
	configFile := fs.String("config", "", "YAML policy file (defaults applied if absent)")
	outFile := fs.String("out", "", "where to write the updated snapshot (defaults to -state)")
	archiveDSN := fs.String("archive-dsn", "", "optional Postgres DSN to archive the exported snapshot to")
	chainID := fs.String("chain-id", "default", "chain id to archive the snapshot under")
	if err := fs.Parse(args); err != nil {
		return wrapExit(exitInputParseError, err)
	}
	if *stateFile == "" || *inFile == "" {
		return wrapExit(exitInputParseError, fmt.Errorf("ingest: -state and -in are required"))
	}
	if *outFile == "" {
		*outFile = *stateFile
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return wrapExit(exitInputParseError, err)
		}
		cfg = loaded
	}

	rawIn, err := os.ReadFile(*inFile)
	if err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("read %s: %w", *inFile, err))
	}
	var intake []intakeArtifact
	if err := json.Unmarshal(rawIn, &intake); err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("parse %s: %w", *inFile, err))
	}

	chain, err := loadOrCreateChain(*stateFile, cfg)
	if err != nil {
		return wrapExit(exitInputParseError, err)
	}

	dsn := *archiveDSN
	if dsn == "" {
		dsn = cfg.SnapshotStoreDSN
	}
	ledgerCfg := ledger.Config{Chain: chain, Policy: cfg}
	if dsn != "" {
		store, err := snapshotstore.Open(context.Background(), snapshotstore.Config{DSN: dsn})
		if err != nil {
			return wrapExit(exitInputParseError, fmt.Errorf("open archive: %w", err))
		}
		defer store.Close()
		ledgerCfg.Archive = store
		ledgerCfg.ChainID = *chainID
	}

	led, err := ledger.New(ledgerCfg)
	if err != nil {
		return err
	}

	for _, ia := range intake {
		a, err := ia.toArtifact()
		if err != nil {
			return wrapExit(exitInputParseError, err)
		}
		if err := led.Submit(a); err != nil {
			return wrapExit(exitInputParseError, fmt.Errorf("submit %s: %w", a.ID, err))
		}
	}

	result, err := led.MintPending(context.Background())
	if err != nil {
		if errors.Is(err, chainledger.ErrMiningExceededBudget) {
			return wrapExit(exitMiningBudgetExceeded, err)
		}
		return err
	}
	if !result.Resolution.Valid {
		return wrapExit(exitDependencyResolution, fmt.Errorf("ingest: dependency resolution failed: %+v", result.Resolution.Unresolvable))
	}
	if len(result.Rejected) > 0 {
		return wrapExit(exitConsentDeclined, fmt.Errorf("ingest: consent gate rejected: %v", result.Rejected))
	}

	validation := led.ValidateChain()
	if !validation.Valid {
		return wrapExit(exitValidationFailure, fmt.Errorf("ingest: chain failed validation after mint: %v", validation.Errors))
	}

	out, err := led.ExportChain()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outFile, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *outFile, err)
	}

	report, _ := json.MarshalIndent(struct {
		Minted    int      `json:"blocks_minted"`
		Decisions int      `json:"decisions"`
		Rejected  []string `json:"rejected,omitempty"`
	}{len(result.Minted), len(result.Decisions), result.Rejected}, "", "  ")
	fmt.Println(string(report))
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	stateFile := fs.String("state", "", "chain snapshot file")
	if err := fs.Parse(args); err != nil {
		return wrapExit(exitInputParseError, err)
	}
	if *stateFile == "" {
		return wrapExit(exitInputParseError, fmt.Errorf("validate: -state is required"))
	}

	data, err := os.ReadFile(*stateFile)
	if err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("read %s: %w", *stateFile, err))
	}
	// Unvalidated: this subcommand's job is to report a structured validity
	// result, including for a tampered snapshot — ImportSnapshotJSON would
	// reject that snapshot outright before we ever got to call Validate.
	chain, err := chainledger.ImportSnapshotJSONUnvalidated(data)
	if err != nil {
		return wrapExit(exitInputParseError, err)
	}

	result := chain.Validate()
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if !result.Valid {
		return wrapExit(exitValidationFailure, fmt.Errorf("validate: chain is invalid"))
	}
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	stateFile := fs.String("state", "", "chain snapshot file")
	caseID := fs.String("case-id", "", "filter by case id")
	tier := fs.String("tier", "", "filter by tier")
	typ := fs.String("type", "", "filter by artifact type")
	contentHash := fs.String("content-hash", "", "look up a single artifact by hex content hash")
	if err := fs.Parse(args); err != nil {
		return wrapExit(exitInputParseError, err)
	}
	if *stateFile == "" {
		return wrapExit(exitInputParseError, fmt.Errorf("query: -state is required"))
	}

	data, err := os.ReadFile(*stateFile)
	if err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("read %s: %w", *stateFile, err))
	}
	chain, err := chainledger.ImportSnapshotJSON(data)
	if err != nil {
		return wrapExit(exitInputParseError, err)
	}

	if *contentHash != "" {
		a, ok := query.GetByContentHash(chain, *contentHash)
		if !ok {
			return fmt.Errorf("query: no artifact with content_hash %s", *contentHash)
		}
		out, _ := json.MarshalIndent(a, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	results := query.Query(chain, query.Filter{
		CaseID: *caseID,
		Tier:   artifact.Tier(*tier),
		Type:   artifact.Type(*typ),
	})
	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	outFile := fs.String("out", "", "where to write the restored snapshot")
	archiveDSN := fs.String("archive-dsn", "", "Postgres DSN to restore the latest archived snapshot from")
	chainID := fs.String("chain-id", "default", "chain id to restore")
	if err := fs.Parse(args); err != nil {
		return wrapExit(exitInputParseError, err)
	}
	if *outFile == "" || *archiveDSN == "" {
		return wrapExit(exitInputParseError, fmt.Errorf("restore: -out and -archive-dsn are required"))
	}

	ctx := context.Background()
	store, err := snapshotstore.Open(ctx, snapshotstore.Config{DSN: *archiveDSN})
	if err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("open archive: %w", err))
	}
	defer store.Close()

	data, seq, err := store.Latest(ctx, *chainID)
	if err != nil {
		return fmt.Errorf("restore: fetch latest snapshot for %s: %w", *chainID, err)
	}

	// Verify the archived snapshot the same way a fresh ingest would before
	// trusting it enough to write it out as live state.
	if _, err := chainledger.ImportSnapshotJSON(data); err != nil {
		return fmt.Errorf("restore: archived snapshot %s/%d failed validation: %w", *chainID, seq, err)
	}
	if err := os.WriteFile(*outFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *outFile, err)
	}

	fmt.Printf("restored %s sequence %d from archive to %s\n", *chainID, seq, *outFile)
	return nil
}

func runProve(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	stateFile := fs.String("state", "", "chain snapshot file")
	id := fs.String("id", "", "artifact id to prove")
	if err := fs.Parse(args); err != nil {
		return wrapExit(exitInputParseError, err)
	}
	if *stateFile == "" || *id == "" {
		return wrapExit(exitInputParseError, fmt.Errorf("prove: -state and -id are required"))
	}

	data, err := os.ReadFile(*stateFile)
	if err != nil {
		return wrapExit(exitInputParseError, fmt.Errorf("read %s: %w", *stateFile, err))
	}
	chain, err := chainledger.ImportSnapshotJSON(data)
	if err != nil {
		return wrapExit(exitInputParseError, err)
	}

	proof, err := query.Prove(chain, *id)
	if err != nil {
		return err
	}
	ok, err := query.Verify(proof)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("prove %s: proof failed self-verification", *id)
	}

	out, _ := json.MarshalIndent(proof, "", "  ")
	fmt.Println(string(out))
	return nil
}
