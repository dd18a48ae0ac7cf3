package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"promptforge/internal/config"
	models "promptforge/internal/domain/models/prompt"
	promptDomain "promptforge/internal/domain/services/prompt"
	variationDomain "promptforge/internal/domain/services/variation"
	"promptforge/internal/repository/memory"
	"promptforge/internal/repository/postgres"
	postgresPrompt "promptforge/internal/repository/postgres/prompt"
	"promptforge/internal/service/oracle"
	promptService "promptforge/internal/service/prompt"
	variationService "promptforge/internal/service/variation"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	ctx        context.Context
	docSvc     promptDomain.DocumentService
	versionSvc promptDomain.VersionService
	differ     promptDomain.Differencer
	variations variationDomain.VariationService
	exclusions variationDomain.ExclusionService
	scanner    *bufio.Scanner
	currentDoc string
	model      string
	logger     *slog.Logger
}

func main() {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()

	logFile, err := config.SetupLogFile("logs", 10)
	if err != nil {
		fmt.Printf("Failed to setup log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("session started",
		"environment", cfg.Environment,
		"database", cfg.DatabaseURL != "",
		"model", cfg.DefaultModel,
	)

	ctx := context.Background()

	cli, err := buildCLI(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("%sFailed to start: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	cli.run()
}

// buildCLI wires the full service stack. With no DATABASE_URL the store is
// in-memory and state lasts for the session only.
func buildCLI(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*CLI, error) {
	var (
		docSvc     promptDomain.DocumentService
		versionSvc promptDomain.VersionService
	)

	parser, err := promptService.NewElementParser(logger)
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}
	synchronizer := promptService.NewSynchronizer(logger)

	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			return nil, err
		}
		repoCfg := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
		docRepo := postgresPrompt.NewDocumentRepository(repoCfg)
		versionRepo := postgresPrompt.NewVersionRepository(repoCfg)
		txManager := postgres.NewTransactionManager(pool)
		versionSvc = promptService.NewVersionService(docRepo, versionRepo, txManager, logger)
		docSvc = promptService.NewDocumentService(docRepo, parser, synchronizer, versionSvc, logger)
		fmt.Printf("%sUsing postgres store (prefix %s)%s\n", colorCyan, cfg.TablePrefix, colorReset)
	} else {
		store := memory.NewStore()
		versionSvc = promptService.NewVersionService(store.Documents(), store.Versions(), store.TxManager(), logger)
		docSvc = promptService.NewDocumentService(store.Documents(), parser, synchronizer, versionSvc, logger)
		fmt.Printf("%sUsing in-memory store (state lost on exit)%s\n", colorCyan, colorReset)
	}

	model := cfg.DefaultModel
	if cfg.AnthropicAPIKey == "" {
		model = "lorem-standard"
	}
	registry := oracle.NewDefaultRegistry(cfg, logger)
	provider, err := registry.ForModel(model)
	if err != nil {
		return nil, fmt.Errorf("create oracle for %s: %w", model, err)
	}

	strategyCatalog, err := variationService.LoadStrategyCatalog()
	if err != nil {
		return nil, err
	}
	exclusionCatalog, err := variationService.LoadExclusionCatalog()
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand // nil = time-seeded
	return &CLI{
		ctx:        ctx,
		docSvc:     docSvc,
		versionSvc: versionSvc,
		differ:     promptService.NewDifferencer(),
		variations: variationService.NewVariationService(provider, model, strategyCatalog, cfg.BatchWindow, rng, logger),
		exclusions: variationService.NewExclusionService(provider, model, exclusionCatalog, logger),
		scanner:    bufio.NewScanner(os.Stdin),
		model:      model,
		logger:     logger,
	}, nil
}

func (c *CLI) run() {
	fmt.Printf("%spromptforge%s interactive shell (model %s). Type 'help' for commands.\n", colorGreen, colorReset, c.model)

	for {
		fmt.Printf("%s> %s", colorBlue, colorReset)
		if !c.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest := splitCommand(line)
		switch cmd {
		case "help":
			c.printHelp()
		case "exit", "quit":
			fmt.Println("bye")
			return
		case "new":
			c.cmdNew(rest)
		case "list":
			c.cmdList()
		case "use":
			c.cmdUse(rest)
		case "show":
			c.cmdShow()
		case "content":
			c.cmdContent(rest)
		case "reparse":
			c.cmdReparse()
		case "edit":
			c.cmdEdit(rest)
		case "add":
			c.cmdAdd(rest)
		case "remove":
			c.cmdRemove(rest)
		case "reorder":
			c.cmdReorder(rest)
		case "lock":
			c.cmdLock(rest, true)
		case "unlock":
			c.cmdLock(rest, false)
		case "versions":
			c.cmdVersions()
		case "diff":
			c.cmdDiff(rest)
		case "restore":
			c.cmdRestore(rest)
		case "rmversion":
			c.cmdDeleteVersion(rest)
		case "variations":
			c.cmdVariations(rest)
		case "combine":
			c.cmdCombine(rest)
		case "exclusions":
			c.cmdExclusions(rest)
		default:
			fmt.Printf("%sunknown command %q (try 'help')%s\n", colorRed, cmd, colorReset)
		}
	}
}

func (c *CLI) printHelp() {
	fmt.Println(`Documents:
  new <text>              create a document from prompt text
  list                    list documents
  use <doc-id>            select the working document
  show                    show the working document and its elements
  content <text>          replace raw content (elements untouched until reparse)
  reparse                 re-derive elements from content

Elements (by index shown in 'show'):
  edit <n> <text>         replace element n's content
  add <category> <text>   append an element (subject, style, lighting, ...)
  remove <n>              remove element n
  reorder <n,n,...>       rearrange elements to the given index order
  lock <n> / unlock <n>   toggle an element's lock

History:
  versions                list versions of the working document
  diff <v1> <v2>          diff two version numbers
  restore <version-id>    restore a version as a new version
  rmversion <version-id>  delete a non-current version

Generation:
  variations <strategy> [count]        per-element candidates (style|detail|mood|composition)
  combine <strategy> <n>               n randomized full-prompt variants
  exclusions <template> <style> <domain> <quality>
                                       negative prompt (minimal|standard|comprehensive|style-specific)

  help, exit`)
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func (c *CLI) cmdNew(text string) {
	doc, err := c.docSvc.CreateDocument(c.ctx, &promptDomain.CreateDocumentRequest{Content: text})
	if err != nil {
		c.fail(err)
		return
	}
	c.currentDoc = doc.ID
	fmt.Printf("%screated %s%s (%d elements)\n", colorGreen, doc.ID, colorReset, len(doc.Elements))
}

func (c *CLI) cmdList() {
	docs, err := c.docSvc.ListDocuments(c.ctx)
	if err != nil {
		c.fail(err)
		return
	}
	if len(docs) == 0 {
		fmt.Println("no documents")
		return
	}
	for _, doc := range docs {
		marker := " "
		if doc.ID == c.currentDoc {
			marker = "*"
		}
		fmt.Printf("%s %s v%d  %s\n", marker, doc.ID, doc.CurrentVersion, truncate(doc.Content, 60))
	}
}

func (c *CLI) cmdUse(id string) {
	if id == "" {
		fmt.Println("usage: use <doc-id>")
		return
	}
	doc, err := c.docSvc.GetDocument(c.ctx, id)
	if err != nil {
		c.fail(err)
		return
	}
	c.currentDoc = doc.ID
	fmt.Printf("using %s\n", doc.ID)
}

func (c *CLI) cmdShow() {
	doc, ok := c.workingDoc()
	if !ok {
		return
	}
	fmt.Printf("%s%s%s  v%d  updated %s\n", colorCyan, doc.ID, colorReset, doc.CurrentVersion, doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  %s\n", doc.Content)
	for i, el := range models.SortedByPosition(doc.Elements) {
		lock := " "
		if el.IsLocked {
			lock = "L"
		}
		fmt.Printf("  [%d]%s %-12s %s\n", i, lock, el.Type, el.Content)
	}
}

func (c *CLI) cmdContent(text string) {
	if c.currentDoc == "" {
		fmt.Println("no working document (use 'new' or 'use')")
		return
	}
	result, err := c.docSvc.UpdateContent(c.ctx, &promptDomain.UpdateContentRequest{
		DocumentID: c.currentDoc,
		Content:    text,
		Summary:    "Edited content",
	})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%scontent updated%s (v%d, elements unchanged until 'reparse')\n", colorGreen, colorReset, result.Applied.CurrentVersion)
}

func (c *CLI) cmdReparse() {
	if c.currentDoc == "" {
		fmt.Println("no working document")
		return
	}
	result, err := c.docSvc.Reparse(c.ctx, &promptDomain.ReparseRequest{DocumentID: c.currentDoc})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%sreparsed%s into %d elements (v%d)\n", colorGreen, colorReset, len(result.Applied.Elements), result.Applied.CurrentVersion)
}

func (c *CLI) cmdEdit(rest string) {
	idxStr, text := splitCommand(rest)
	el, ok := c.elementAt(idxStr)
	if !ok || text == "" {
		fmt.Println("usage: edit <n> <text>")
		return
	}
	result, err := c.docSvc.EditElement(c.ctx, &promptDomain.EditElementRequest{
		DocumentID: c.currentDoc,
		ElementID:  el.ID,
		Content:    text,
	})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%s%s%s\n", colorGreen, result.Applied.Content, colorReset)
}

func (c *CLI) cmdAdd(rest string) {
	category, text := splitCommand(rest)
	if category == "" || text == "" {
		fmt.Println("usage: add <category> <text>")
		return
	}
	result, err := c.docSvc.AddElement(c.ctx, &promptDomain.AddElementRequest{
		DocumentID: c.currentDoc,
		Type:       models.Category(category),
		Content:    text,
	})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%s%s%s\n", colorGreen, result.Applied.Content, colorReset)
}

func (c *CLI) cmdRemove(idxStr string) {
	el, ok := c.elementAt(idxStr)
	if !ok {
		fmt.Println("usage: remove <n>")
		return
	}
	result, err := c.docSvc.RemoveElement(c.ctx, &promptDomain.RemoveElementRequest{
		DocumentID: c.currentDoc,
		ElementID:  el.ID,
	})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%s%s%s\n", colorGreen, result.Applied.Content, colorReset)
}

func (c *CLI) cmdReorder(rest string) {
	doc, ok := c.workingDoc()
	if !ok {
		return
	}
	sorted := models.SortedByPosition(doc.Elements)
	var ids []string
	for _, part := range strings.Split(rest, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 || idx >= len(sorted) {
			fmt.Println("usage: reorder <n,n,...> (every current index exactly once)")
			return
		}
		ids = append(ids, sorted[idx].ID)
	}
	result, err := c.docSvc.ReorderElements(c.ctx, &promptDomain.ReorderElementsRequest{
		DocumentID: c.currentDoc,
		OrderedIDs: ids,
	})
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%s%s%s\n", colorGreen, result.Applied.Content, colorReset)
}

func (c *CLI) cmdLock(idxStr string, locked bool) {
	el, ok := c.elementAt(idxStr)
	if !ok {
		fmt.Println("usage: lock <n> / unlock <n>")
		return
	}
	if _, err := c.docSvc.SetElementLock(c.ctx, &promptDomain.SetElementLockRequest{
		DocumentID: c.currentDoc,
		ElementID:  el.ID,
		Locked:     locked,
	}); err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%sok%s\n", colorGreen, colorReset)
}

func (c *CLI) cmdVersions() {
	if c.currentDoc == "" {
		fmt.Println("no working document")
		return
	}
	versions, err := c.versionSvc.ListVersions(c.ctx, c.currentDoc)
	if err != nil {
		c.fail(err)
		return
	}
	for _, v := range versions {
		restored := ""
		if v.RestoredFrom != nil {
			restored = " (restored)"
		}
		fmt.Printf("  v%-3d %s  %s%s  %s\n", v.VersionNumber, v.ID, v.ChangeSummary, restored, truncate(v.Content, 50))
	}
}

func (c *CLI) cmdDiff(rest string) {
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		fmt.Println("usage: diff <v1> <v2>")
		return
	}
	from, err1 := strconv.Atoi(parts[0])
	to, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		fmt.Println("usage: diff <v1> <v2>")
		return
	}
	if c.currentDoc == "" {
		fmt.Println("no working document")
		return
	}
	versions, err := c.versionSvc.ListVersions(c.ctx, c.currentDoc)
	if err != nil {
		c.fail(err)
		return
	}
	var vFrom, vTo *models.Version
	for i := range versions {
		if versions[i].VersionNumber == from {
			vFrom = &versions[i]
		}
		if versions[i].VersionNumber == to {
			vTo = &versions[i]
		}
	}
	if vFrom == nil || vTo == nil {
		fmt.Printf("%sversion not found%s\n", colorRed, colorReset)
		return
	}

	contentDiff := c.differ.DiffContent(vFrom.Content, vTo.Content)
	fmt.Printf("content: +%d -%d ~%d\n", contentDiff.Additions, contentDiff.Deletions, contentDiff.Modifications)
	for _, change := range contentDiff.Changes {
		switch change.Type {
		case models.ChangeAddition:
			fmt.Printf("  %s+ %s%s\n", colorGreen, change.After, colorReset)
		case models.ChangeDeletion:
			fmt.Printf("  %s- %s%s\n", colorRed, change.Before, colorReset)
		case models.ChangeModification:
			fmt.Printf("  %s~ %s -> %s%s\n", colorYellow, change.Before, change.After, colorReset)
		}
	}

	elementDiff := c.differ.DiffElements(vFrom.Elements, vTo.Elements)
	fmt.Printf("elements: +%d -%d ~%d reordered=%t\n",
		len(elementDiff.Added), len(elementDiff.Removed), len(elementDiff.Modified), elementDiff.Reordered)
}

func (c *CLI) cmdRestore(versionID string) {
	if versionID == "" {
		fmt.Println("usage: restore <version-id>")
		return
	}
	version, err := c.versionSvc.Restore(c.ctx, versionID)
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%srestored as v%d%s\n", colorGreen, version.VersionNumber, colorReset)
}

func (c *CLI) cmdDeleteVersion(versionID string) {
	if versionID == "" {
		fmt.Println("usage: rmversion <version-id>")
		return
	}
	if err := c.versionSvc.DeleteVersion(c.ctx, versionID); err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%sdeleted%s\n", colorGreen, colorReset)
}

func (c *CLI) cmdVariations(rest string) {
	parts := strings.Fields(rest)
	if len(parts) == 0 {
		fmt.Println("usage: variations <strategy> [count]")
		return
	}
	strategy := models.VariationStrategy(parts[0])
	count := 3
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			count = n
		}
	}
	doc, ok := c.workingDoc()
	if !ok {
		return
	}
	candidates, err := c.variations.GenerateBatch(c.ctx, doc.Elements, strategy, count)
	if err != nil {
		c.fail(err)
		return
	}
	for _, el := range models.SortedByPosition(doc.Elements) {
		fmt.Printf("%s%s%s (%s)\n", colorCyan, el.Content, colorReset, el.Type)
		for _, candidate := range candidates[el.ID] {
			fmt.Printf("  - %s\n", candidate)
		}
	}
}

func (c *CLI) cmdCombine(rest string) {
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		fmt.Println("usage: combine <strategy> <n>")
		return
	}
	strategy := models.VariationStrategy(parts[0])
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		fmt.Println("usage: combine <strategy> <n>")
		return
	}
	doc, ok := c.workingDoc()
	if !ok {
		return
	}
	candidates, err := c.variations.GenerateBatch(c.ctx, doc.Elements, strategy, 3)
	if err != nil {
		c.fail(err)
		return
	}
	for i, combined := range c.variations.Combine(doc.Elements, candidates, n) {
		fmt.Printf("  %d. %s\n", i+1, combined)
	}
}

func (c *CLI) cmdExclusions(rest string) {
	parts := strings.Fields(rest)
	if len(parts) < 4 {
		fmt.Println("usage: exclusions <template> <style> <domain> <quality>")
		return
	}
	cfg := &models.ExclusionConfig{
		Style:         parts[1],
		SubjectDomain: parts[2],
		QualityLevel:  models.QualityLevel(parts[3]),
	}
	var (
		terms string
		err   error
	)
	if parts[0] == "oracle" {
		terms, err = c.exclusions.BuildWithOracle(c.ctx, cfg)
	} else {
		terms, err = c.exclusions.Build(models.ExclusionTemplate(parts[0]), cfg)
	}
	if err != nil {
		c.fail(err)
		return
	}
	fmt.Printf("%s%s%s\n", colorYellow, terms, colorReset)
}

func (c *CLI) workingDoc() (*models.Document, bool) {
	if c.currentDoc == "" {
		fmt.Println("no working document (use 'new' or 'use')")
		return nil, false
	}
	doc, err := c.docSvc.GetDocument(c.ctx, c.currentDoc)
	if err != nil {
		c.fail(err)
		return nil, false
	}
	return doc, true
}

func (c *CLI) elementAt(idxStr string) (*models.Element, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
	if err != nil {
		return nil, false
	}
	doc, ok := c.workingDoc()
	if !ok {
		return nil, false
	}
	sorted := models.SortedByPosition(doc.Elements)
	if idx < 0 || idx >= len(sorted) {
		fmt.Printf("%selement index out of range%s\n", colorRed, colorReset)
		return nil, false
	}
	return &sorted[idx], true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (c *CLI) fail(err error) {
	c.logger.Error("command failed", "error", err)
	fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
}
